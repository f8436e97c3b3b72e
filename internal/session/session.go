// Package session holds the state behind the application shell: the current
// batch, its progress, the collected texts and the notice log.
//
// A Session is not safe for concurrent use. Exactly one goroutine (the
// shell's event loop) owns it; workers reach it only through outcomes sent
// over a channel.
package session

import (
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
	"ocrdrop/internal/progress"
	"ocrdrop/internal/results"
)

var ErrBatchInProgress = errors.New("a batch is still being processed")

type Session struct {
	exts    processor.ExtensionSet
	batchID uuid.UUID
	running bool
	tracker progress.Tracker
	results results.Aggregator
	notices []string
}

func New(exts processor.ExtensionSet) *Session {
	if exts == nil {
		exts = processor.NewExtensionSet(nil)
	}
	return &Session{exts: exts}
}

// Begin resets the session and enumerates paths into a new batch. While a
// batch is running it refuses with ErrBatchInProgress. When nothing matches
// it returns processor.ErrNoImages and the session stays idle.
func (s *Session) Begin(paths []string) (processor.Batch, error) {
	if s.running {
		return processor.Batch{}, ErrBatchInProgress
	}
	s.reset()

	batch, err := processor.NewBatch(paths, s.exts)
	for _, w := range batch.Warnings {
		s.notices = append(s.notices, "Warning: "+w.Error())
	}
	if err != nil {
		return batch, err
	}

	s.batchID = batch.ID
	s.running = true
	s.tracker.Reset(batch.Total())
	return batch, nil
}

// Apply records one outcome. Outcomes of any batch other than the current
// one, such as those still arriving after Clear, are dropped and reported
// as false.
func (s *Session) Apply(o ocr.Outcome) bool {
	if !s.running || o.BatchID != s.batchID {
		return false
	}

	switch o.Kind {
	case ocr.OutcomeSuccess:
		s.results.Append(o.Text)
	default:
		s.notices = append(s.notices, "Error: "+o.Message())
	}
	s.tracker.Done()
	if s.tracker.Complete() {
		s.running = false
	}
	return true
}

// Finish marks the batch as over even if not every task reported, which
// happens when it was cancelled.
func (s *Session) Finish(id uuid.UUID) {
	if id == s.batchID {
		s.running = false
	}
}

// Clear empties the session regardless of tasks still in flight; their
// outcomes will no longer match and are ignored.
func (s *Session) Clear() {
	s.reset()
	s.batchID = uuid.Nil
	s.running = false
}

func (s *Session) reset() {
	s.tracker.Reset(0)
	s.results.Reset()
	s.notices = nil
}

func (s *Session) Save(path string) error {
	return s.results.Save(path)
}

// WriteTo writes the texts in the saved-file format.
func (s *Session) WriteTo(w io.Writer) (int64, error) {
	return s.results.WriteTo(w)
}

// Display is the rendered texts followed by the notice log.
func (s *Session) Display() string {
	var b strings.Builder
	b.WriteString(s.results.Render())
	for _, n := range s.notices {
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Session) Running() bool              { return s.running }
func (s *Session) BatchID() uuid.UUID         { return s.batchID }
func (s *Session) Progress() progress.Tracker { return s.tracker }
func (s *Session) Texts() []string            { return s.results.Texts() }
func (s *Session) Notices() []string          { return append([]string(nil), s.notices...) }

func (s *Session) Extensions() processor.ExtensionSet {
	return s.exts
}
