//go:build !libtesseract

package engine

import "ocrdrop/internal/ocr"

func newLibrary(Setup) (ocr.Recognizer, error) {
	return nil, ErrNotCompiled
}
