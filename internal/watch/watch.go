// Package watch turns images created in a drop folder into batches.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"ocrdrop/internal/processor"
)

const (
	DefaultTick   = 250 * time.Millisecond
	DefaultStable = 300 * time.Millisecond
)

type Options struct {
	Extensions processor.ExtensionSet
	// Tick is how often pending files are checked.
	Tick time.Duration
	// Stable is how long a file must go without events before it is
	// handed out.
	Stable time.Duration
	// Ignore reports paths that must never be picked up, such as the
	// output file when it lives inside the watched folder.
	Ignore func(path string) bool
}

// Watch blocks until ctx is done or the watcher fails, sending each group
// of files that became stable during one tick on drops. Files are sent by
// full path, sorted.
func Watch(ctx context.Context, dir string, opts Options, drops chan<- []string) error {
	if opts.Extensions == nil {
		opts.Extensions = processor.NewExtensionSet(nil)
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Stable <= 0 {
		opts.Stable = DefaultStable
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	slog.Info("watching folder", "dir", dir, "formats", opts.Extensions.String())

	pending := map[string]time.Time{}
	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Op&fsnotify.Create == fsnotify.Create:
				if !opts.Extensions.Match(ev.Name) || (opts.Ignore != nil && opts.Ignore(ev.Name)) {
					continue
				}
				pending[ev.Name] = time.Now()
			case ev.Op&fsnotify.Write == fsnotify.Write:
				if _, ok := pending[ev.Name]; ok {
					pending[ev.Name] = time.Now()
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
			}
		case <-ticker.C:
			ready := stable(pending, time.Now(), opts.Stable)
			if len(ready) == 0 {
				continue
			}
			select {
			case drops <- ready:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "dir", dir, "error", err)
		}
	}
}

// stable removes and returns the pending paths untouched for longer than
// wait.
func stable(pending map[string]time.Time, now time.Time, wait time.Duration) []string {
	var ready []string
	for path, seen := range pending {
		if now.Sub(seen) > wait {
			ready = append(ready, filepath.Clean(path))
			delete(pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}
