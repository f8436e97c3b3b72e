package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ocrdrop/internal/ocr"
)

// SupportedExtensions are matched case-insensitively against file names.
var SupportedExtensions = []string{
	".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tiff", ".tif", ".webp",
	".ppm", ".pgm", ".pbm", ".pnm",
}

var ErrNoImages = errors.New("no images found")

type ExtensionSet map[string]struct{}

// NewExtensionSet normalizes extensions to lower case with a leading dot.
// An empty list yields SupportedExtensions.
func NewExtensionSet(exts []string) ExtensionSet {
	if len(exts) == 0 {
		exts = SupportedExtensions
	}
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func (s ExtensionSet) Match(path string) bool {
	_, ok := s[strings.ToLower(filepath.Ext(path))]
	return ok
}

// String lists the extensions, known ones in SupportedExtensions order
// first.
func (s ExtensionSet) String() string {
	var known, extra []string
	seen := map[string]bool{}
	for _, ext := range SupportedExtensions {
		if _, ok := s[ext]; ok {
			known = append(known, ext)
			seen[ext] = true
		}
	}
	for ext := range s {
		if !seen[ext] {
			extra = append(extra, ext)
		}
	}
	sort.Strings(extra)
	return strings.Join(append(known, extra...), ", ")
}

// Enumerate expands files and directories into the list of supported image
// files. Directories are walked recursively in walk order. Inaccessible
// paths become warnings and never stop the walk.
func Enumerate(paths []string, exts ExtensionSet) ([]string, []error) {
	var files []string
	var warnings []error

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			warnings = append(warnings, &ocr.EnumerationError{Path: root, Err: err})
			continue
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() && exts.Match(root) {
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				warnings = append(warnings, &ocr.EnumerationError{Path: path, Err: walkErr})
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !exts.Match(path) || !isRegular(path, d) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			warnings = append(warnings, &ocr.EnumerationError{Path: root, Err: err})
		}
	}

	return files, warnings
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NewBatch enumerates paths and assigns the batch a fresh id. When nothing
// matches it returns ErrNoImages together with the (still useful) warnings.
func NewBatch(paths []string, exts ExtensionSet) (Batch, error) {
	files, warnings := Enumerate(paths, exts)
	batch := Batch{ID: uuid.New(), Files: files, Warnings: warnings}
	if len(files) == 0 {
		return batch, fmt.Errorf("%w (supported formats: %s)", ErrNoImages, exts)
	}
	return batch, nil
}
