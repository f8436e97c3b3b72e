// Package engine locates the tesseract installation at startup and provides
// the recognizers tasks hand their images to.
package engine

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"ocrdrop/internal/ocr"
)

// Kind selects how tesseract is invoked.
type Kind string

const (
	KindCLI     Kind = "cli"
	KindLibrary Kind = "library"
)

// Setup is the resolved engine installation. It is built once at startup
// and passed to every recognizer instead of living in process globals.
type Setup struct {
	Kind        Kind
	Binary      string
	TessdataDir string
	// Clients bounds the idle in-process engine handles kept for reuse,
	// normally the worker count. Zero means runtime.NumCPU().
	Clients int
}

// Env returns the environment additions the engine needs.
func (s Setup) Env() []string {
	if s.TessdataDir == "" {
		return nil
	}
	return []string{"TESSDATA_PREFIX=" + s.TessdataDir}
}

// Options drive discovery. Empty fields fall back to the bundled install
// next to the executable, then to well-known locations, then to PATH.
type Options struct {
	Kind        Kind
	Binary      string
	TessdataDir string
	// ExecutableDir overrides the directory searched for a bundled
	// Tesseract-OCR folder. Defaults to the running executable's directory.
	ExecutableDir string
}

var windowsInstallDirs = []string{
	`C:\Program Files\Tesseract-OCR`,
	`C:\Program Files (x86)\Tesseract-OCR`,
}

var lookPath = exec.LookPath

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "tesseract.exe"
	}
	return "tesseract"
}

// Discover resolves the engine installation. A missing binary is a
// *ocr.SetupError, which callers treat as fatal.
func Discover(opts Options) (Setup, error) {
	setup := Setup{Kind: opts.Kind, TessdataDir: opts.TessdataDir}
	if setup.Kind == "" {
		setup.Kind = KindCLI
	}

	if opts.Binary != "" {
		if err := checkExecutable(opts.Binary); err != nil {
			return Setup{}, &ocr.SetupError{Err: err}
		}
		setup.Binary = opts.Binary
		setup.TessdataDir = firstNonEmpty(setup.TessdataDir, tessdataBeside(opts.Binary))
		return setup, nil
	}

	exeDir := opts.ExecutableDir
	if exeDir == "" {
		if exe, err := os.Executable(); err == nil {
			exeDir = filepath.Dir(exe)
		}
	}

	candidates := []string{}
	if exeDir != "" {
		candidates = append(candidates, filepath.Join(exeDir, "Tesseract-OCR", binaryName()))
	}
	if runtime.GOOS == "windows" {
		for _, dir := range windowsInstallDirs {
			candidates = append(candidates, filepath.Join(dir, binaryName()))
		}
	}
	for _, candidate := range candidates {
		if checkExecutable(candidate) == nil {
			setup.Binary = candidate
			setup.TessdataDir = firstNonEmpty(setup.TessdataDir, tessdataBeside(candidate))
			return setup, nil
		}
	}

	path, err := lookPath(binaryName())
	if err != nil {
		if setup.Kind == KindLibrary {
			// libtesseract does not need the binary.
			return setup, nil
		}
		return Setup{}, &ocr.SetupError{Err: fmt.Errorf("%s not found next to the executable or on PATH: %w", binaryName(), err)}
	}
	setup.Binary = path
	return setup, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func tessdataBeside(binary string) string {
	dir := filepath.Join(filepath.Dir(binary), "tessdata")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ErrNotCompiled is returned by the library engine when the binary was built
// without the libtesseract tag.
var ErrNotCompiled = errors.New("library engine not compiled in; rebuild with -tags libtesseract")

// New returns the recognizer for the setup.
func New(setup Setup) (ocr.Recognizer, error) {
	switch setup.Kind {
	case KindCLI, "":
		return NewTesseractCLI(setup), nil
	case KindLibrary:
		return newLibrary(setup)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", setup.Kind)
	}
}
