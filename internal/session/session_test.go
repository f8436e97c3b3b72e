package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
	"ocrdrop/internal/results"
)

type widthRecognizer map[int]string

func (w widthRecognizer) Name() string { return "width" }

func (w widthRecognizer) Recognize(_ context.Context, data []byte, _ ocr.Settings) (string, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return w[cfg.Width], nil
}

func writePNG(t *testing.T, path string, w int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, 3))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// drive runs a batch to completion, feeding outcomes to the session from
// this goroutine only.
func drive(t *testing.T, s *Session, batch processor.Batch, rec ocr.Recognizer) {
	t.Helper()
	updates := make(chan ocr.Outcome)
	go func() {
		defer close(updates)
		if _, err := processor.Run(context.Background(), batch, rec, processor.Options{Profile: ocr.Robust()}, updates); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	for o := range updates {
		s.Apply(o)
		p := s.Progress()
		if p.Processed() > p.Total() {
			t.Fatalf("processed %d exceeds total %d", p.Processed(), p.Total())
		}
	}
	s.Finish(batch.ID)
}

func TestSessionMixedFolder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 7)
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.jpg"), []byte{0xff, 0xd8, 0xff, 0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := New(nil)
	batch, err := s.Begin([]string{dir})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.Progress().Total() != 2 {
		t.Fatalf("total = %d, want 2", s.Progress().Total())
	}

	drive(t, s, batch, widthRecognizer{7: "HELLO"})

	p := s.Progress()
	if p.Processed() != 2 || p.Percent() != 100 || s.Running() {
		t.Fatalf("progress %s running=%v", p.String(), s.Running())
	}
	display := s.Display()
	if strings.Count(display, "HELLO") != 1 || strings.Count(display, results.Separator) != 1 {
		t.Fatalf("display: %q", display)
	}
	errLines := 0
	for _, line := range strings.Split(display, "\n") {
		if strings.HasPrefix(line, "Error: ") && strings.Contains(line, "c.jpg") {
			errLines++
		}
	}
	if errLines != 1 {
		t.Fatalf("expected one error line for c.jpg in %q", display)
	}
}

func TestSessionRejectsOverlap(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2)

	s := New(nil)
	if _, err := s.Begin([]string{dir}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := s.Begin([]string{dir}); !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
}

func TestSessionNoImages(t *testing.T) {
	s := New(nil)
	_, err := s.Begin([]string{filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, processor.ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if s.Running() {
		t.Fatalf("session should stay idle")
	}
	if n := s.Notices(); len(n) != 1 || !strings.HasPrefix(n[0], "Warning: ") {
		t.Fatalf("expected a warning notice, got %v", n)
	}
}

func TestSessionClearMidBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name), 4)
	}

	s := New(nil)
	batch, err := s.Begin([]string{dir})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	first := ocr.Outcome{BatchID: batch.ID, Path: batch.Files[0], Kind: ocr.OutcomeSuccess, Text: "one"}
	if !s.Apply(first) {
		t.Fatalf("outcome of the current batch rejected")
	}

	s.Clear()
	p := s.Progress()
	if p.Processed() != 0 || p.Total() != 0 || len(s.Texts()) != 0 || s.Display() != "" || s.Running() {
		t.Fatalf("clear left state behind: %s texts=%v", p.String(), s.Texts())
	}

	late := ocr.Outcome{BatchID: batch.ID, Path: batch.Files[1], Kind: ocr.OutcomeSuccess, Text: "late"}
	if s.Apply(late) {
		t.Fatalf("stale outcome applied after clear")
	}
	if s.Progress().Processed() != 0 || len(s.Texts()) != 0 {
		t.Fatalf("stale outcome changed state")
	}

	if _, err := s.Begin([]string{dir}); err != nil {
		t.Fatalf("Begin after clear: %v", err)
	}
	if s.Apply(late) {
		t.Fatalf("outcome of an old batch applied to the new one")
	}
}

func TestSessionIgnoresForeignBatch(t *testing.T) {
	s := New(nil)
	if s.Apply(ocr.Outcome{BatchID: uuid.New(), Kind: ocr.OutcomeSuccess, Text: "x"}) {
		t.Fatalf("outcome applied with no batch running")
	}
}

func TestSessionSave(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	s := New(nil)
	if err := s.Save(out); !errors.Is(err, results.ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("save with no results wrote a file")
	}

	writePNG(t, filepath.Join(dir, "a.png"), 3)
	writePNG(t, filepath.Join(dir, "b.png"), 5)
	batch, err := s.Begin([]string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	drive(t, s, batch, widthRecognizer{3: "alpha", 5: "beta"})

	if err := s.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), results.Separator); n != 2 {
		t.Fatalf("saved %d blocks, want 2: %q", n, data)
	}
}
