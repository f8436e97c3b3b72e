package progress

import "fmt"

// Tracker counts completed tasks against a fixed total. It is owned by a
// single goroutine and does no locking of its own.
type Tracker struct {
	processed int
	total     int
}

// Reset starts a new batch of total tasks.
func (t *Tracker) Reset(total int) {
	if total < 0 {
		total = 0
	}
	t.processed = 0
	t.total = total
}

// Done records one completed task, whatever its outcome. Completions beyond
// the total are ignored and reported as false.
func (t *Tracker) Done() bool {
	if t.processed >= t.total {
		return false
	}
	t.processed++
	return true
}

func (t Tracker) Processed() int { return t.processed }
func (t Tracker) Total() int     { return t.total }

// Complete reports whether every task of a non-empty batch has finished.
func (t Tracker) Complete() bool {
	return t.total > 0 && t.processed == t.total
}

// Percent is floor(processed/total*100), or 0 for an empty batch.
func (t Tracker) Percent() int {
	if t.total == 0 {
		return 0
	}
	return t.processed * 100 / t.total
}

// Ratio is processed/total in [0,1].
func (t Tracker) Ratio() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.processed) / float64(t.total)
}

func (t Tracker) String() string {
	return fmt.Sprintf("Processed %d of %d files", t.processed, t.total)
}
