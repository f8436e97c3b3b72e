package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"ocrdrop/internal/engine"
	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "ocrdrop.yaml"

type Config struct {
	Profile    string   `yaml:"profile"`
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"`

	Engine struct {
		Kind        string `yaml:"kind"`
		Binary      string `yaml:"binary"`
		TessdataDir string `yaml:"tessdata_dir"`
	} `yaml:"engine"`

	// OCR overrides the selected profile's engine settings. Unset fields
	// keep the profile's value.
	OCR struct {
		Language  *string `yaml:"language"`
		PSM       *int    `yaml:"psm"`
		OEM       *int    `yaml:"oem"`
		DPI       *int    `yaml:"dpi"`
		Whitelist *string `yaml:"whitelist"`
	} `yaml:"ocr"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func Default() *Config {
	cfg := &Config{Profile: "robust"}
	cfg.Engine.Kind = string(engine.KindCLI)
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the YAML file at path on top of the defaults. An empty path
// means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ocr.ProfileByName(c.Profile); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch engine.Kind(strings.ToLower(c.Engine.Kind)) {
	case "", engine.KindCLI, engine.KindLibrary:
	default:
		return fmt.Errorf("unknown engine kind %q (want cli or library)", c.Engine.Kind)
	}
	if p := c.OCR.PSM; p != nil && (*p < 0 || *p > 13) {
		return fmt.Errorf("psm must be between 0 and 13, got %d", *p)
	}
	if o := c.OCR.OEM; o != nil && (*o < 0 || *o > 3) {
		return fmt.Errorf("oem must be between 0 and 3, got %d", *o)
	}
	if d := c.OCR.DPI; d != nil && *d < 0 {
		return fmt.Errorf("dpi must not be negative, got %d", *d)
	}
	for _, ext := range c.Extensions {
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			return fmt.Errorf("empty extension in extensions list")
		}
	}
	return nil
}

// ProfileFor resolves the named profile and applies the ocr overrides. A
// non-empty name takes precedence over the configured one.
func (c *Config) ProfileFor(name string) (ocr.Profile, error) {
	if name == "" {
		name = c.Profile
	}
	p, err := ocr.ProfileByName(name)
	if err != nil {
		return ocr.Profile{}, err
	}

	s := &p.Settings
	if c.OCR.Language != nil {
		s.Language = *c.OCR.Language
	}
	if c.OCR.PSM != nil {
		s.PSM = *c.OCR.PSM
	}
	if c.OCR.OEM != nil {
		s.OEM = *c.OCR.OEM
	}
	if c.OCR.DPI != nil {
		s.DPI = *c.OCR.DPI
	}
	if c.OCR.Whitelist != nil {
		s.Whitelist = *c.OCR.Whitelist
	}
	return p, nil
}

func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Kind:        engine.Kind(strings.ToLower(c.Engine.Kind)),
		Binary:      c.Engine.Binary,
		TessdataDir: c.Engine.TessdataDir,
	}
}

func (c *Config) ExtensionSet() processor.ExtensionSet {
	return processor.NewExtensionSet(c.Extensions)
}

func (c *Config) ProcessorOptions(profile ocr.Profile) processor.Options {
	return processor.Options{Workers: c.Workers, Profile: profile}
}
