package results

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Separator follows every text block, in the display and in saved files.
var Separator = "\n" + strings.Repeat("_", 50) + "\n\n"

var ErrNothingToSave = errors.New("there is no extracted text to save")

// Aggregator collects extracted texts in arrival order. Like the progress
// tracker it belongs to a single goroutine.
type Aggregator struct {
	texts []string
}

func (a *Aggregator) Append(text string) {
	a.texts = append(a.texts, text)
}

func (a *Aggregator) Reset() {
	a.texts = nil
}

func (a *Aggregator) Len() int { return len(a.texts) }

func (a *Aggregator) Texts() []string {
	return append([]string(nil), a.texts...)
}

// Render rebuilds the whole display buffer.
func (a *Aggregator) Render() string {
	var b strings.Builder
	for _, text := range a.texts {
		writeBlock(&b, text)
	}
	return b.String()
}

// WriteTo writes every block as "\n" + text + "\n" + Separator.
func (a *Aggregator) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, text := range a.texts {
		var b strings.Builder
		writeBlock(&b, text)
		written, err := bw.WriteString(b.String())
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Save writes the collected texts to path as UTF-8. With nothing collected
// it returns ErrNothingToSave and leaves the file system untouched.
func (a *Aggregator) Save(path string) error {
	if len(a.texts) == 0 {
		return ErrNothingToSave
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ocrdrop-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := a.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return replaceFile(tmp.Name(), path)
}

// AppendFile appends texts to path in the saved-file format, creating the
// file when needed.
func AppendFile(path string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	agg := Aggregator{texts: texts}
	if _, err := agg.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func writeBlock(b *strings.Builder, text string) {
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
	b.WriteString(Separator)
}
