package ocr

import (
	"errors"
	"fmt"
)

// ErrEmptyResult marks an image in which the engine found no text. It is a
// notice rather than a failure.
var ErrEmptyResult = errors.New("no text was found in the image")

// DecodeError reports an image that could not be opened or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not open or read the image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EngineError reports a failed call into the recognition engine.
type EngineError struct {
	Engine string
	Err    error
	Stderr string
}

func (e *EngineError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Engine, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// EnumerationError reports an input path or directory that could not be
// read while collecting images.
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("error accessing %s: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// SetupError reports that no usable recognition engine was found at startup.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("tesseract OCR is not available: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
