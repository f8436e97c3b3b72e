package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recognizer is the text recognition engine a task hands its preprocessed
// image to. Implementations must be safe for concurrent use.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte, settings Settings) (string, error)
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Task is one image to recognize.
type Task struct {
	Path    string
	Profile Profile
}

// Outcome is produced exactly once per task.
type Outcome struct {
	BatchID uuid.UUID
	Path    string
	Kind    OutcomeKind
	Text    string
	Err     error
	Elapsed time.Duration
}

// Message is the human-readable notice for empty and failed outcomes.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return ""
	case OutcomeEmpty:
		return fmt.Sprintf("No text was found in the image: %s", o.Path)
	default:
		return fmt.Sprintf("Error processing %s: %v", o.Path, o.Err)
	}
}

// Run decodes, preprocesses and recognizes one image. It never returns an
// error: every failure is folded into the outcome.
func Run(ctx context.Context, task Task, rec Recognizer) (out Outcome) {
	started := time.Now()
	out = Outcome{Path: task.Path}
	defer func() {
		if r := recover(); r != nil {
			out.Kind = OutcomeError
			out.Text = ""
			out.Err = fmt.Errorf("panic: %v", r)
		}
		out.Elapsed = time.Since(started)
	}()

	text, err := recognize(ctx, task, rec)
	switch {
	case errors.Is(err, ErrEmptyResult):
		out.Kind = OutcomeEmpty
		out.Err = err
	case err != nil:
		out.Kind = OutcomeError
		out.Err = err
	default:
		out.Kind = OutcomeSuccess
		out.Text = text
	}
	return out
}

func recognize(ctx context.Context, task Task, rec Recognizer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := Decode(task.Path)
	if err != nil {
		return "", err
	}

	processed := Preprocess(img, task.Profile.Variant)

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return "", fmt.Errorf("encode preprocessed image: %w", err)
	}

	raw, err := rec.Recognize(ctx, buf.Bytes(), task.Profile.Settings)
	if err != nil {
		var engineErr *EngineError
		if errors.As(err, &engineErr) {
			return "", err
		}
		return "", &EngineError{Engine: rec.Name(), Err: err}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
