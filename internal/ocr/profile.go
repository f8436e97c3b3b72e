package ocr

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant selects the preprocessing filter chain.
type Variant int

const (
	// VariantRobust: grayscale, median blur, adaptive Gaussian threshold,
	// morphological closing.
	VariantRobust Variant = iota
	// VariantSimple: grayscale and a global Otsu threshold.
	VariantSimple
)

func (v Variant) String() string {
	switch v {
	case VariantRobust:
		return "robust"
	case VariantSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// Var is a tesseract config variable passed with -c.
type Var struct {
	Name  string
	Value string
}

// Settings are the engine options of a profile. They are handed to the
// engine as-is; nothing in this package interprets them.
type Settings struct {
	PSM       int
	OEM       int
	Language  string
	DPI       int
	Whitelist string
	Vars      []Var
}

// Args renders the settings as tesseract command-line arguments.
func (s Settings) Args() []string {
	var args []string
	if s.PSM >= 0 {
		args = append(args, "--psm", strconv.Itoa(s.PSM))
	}
	if s.OEM >= 0 {
		args = append(args, "--oem", strconv.Itoa(s.OEM))
	}
	if s.Language != "" {
		args = append(args, "-l", s.Language)
	}
	if s.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(s.DPI))
	}
	if s.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+s.Whitelist)
	}
	for _, v := range s.Vars {
		args = append(args, "-c", v.Name+"="+v.Value)
	}
	return args
}

// String renders the settings as a single config string for logs.
func (s Settings) String() string {
	args := s.Args()
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			args[i] = strconv.Quote(a)
		}
	}
	return strings.Join(args, " ")
}

// Profile pairs a preprocessing variant with engine settings.
type Profile struct {
	Name     string
	Variant  Variant
	Settings Settings
}

const robustWhitelist = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ,.!@#$%&*()_+-=\\/ "

// Robust is the default profile: the full cleanup chain and a single
// uniform block of English text at 300 DPI with dictionary correction.
func Robust() Profile {
	return Profile{
		Name:    "robust",
		Variant: VariantRobust,
		Settings: Settings{
			PSM:       6,
			OEM:       3,
			Language:  "eng",
			DPI:       300,
			Whitelist: robustWhitelist,
			Vars: []Var{
				{Name: "preserve_interword_spaces", Value: "1"},
				{Name: "load_system_dawg", Value: "1"},
				{Name: "load_freq_dawg", Value: "1"},
			},
		},
	}
}

func Simple() Profile {
	return Profile{
		Name:    "simple",
		Variant: VariantSimple,
		Settings: Settings{
			PSM:      3,
			OEM:      3,
			Language: "eng",
		},
	}
}

// ProfileByName returns the named built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "robust":
		return Robust(), nil
	case "simple":
		return Simple(), nil
	default:
		return Profile{}, fmt.Errorf("unknown profile %q (want robust or simple)", name)
	}
}
