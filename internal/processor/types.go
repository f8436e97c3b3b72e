package processor

import (
	"github.com/google/uuid"

	"ocrdrop/internal/ocr"
)

type Options struct {
	// Workers is the pool size. Zero means runtime.NumCPU().
	Workers int
	Profile ocr.Profile
}

type Job struct {
	Path    string
	Display string
}

// Batch is the enumerated input of one drop. Its file list, and so its
// total, never changes after NewBatch returns.
type Batch struct {
	ID       uuid.UUID
	Files    []string
	Warnings []error
}

func (b Batch) Total() int { return len(b.Files) }

type Summary struct {
	Total     int
	Processed int
	Succeeded int
	Empty     int
	Errors    int
}
