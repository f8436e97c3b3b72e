package processor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"ocrdrop/internal/ocr"
)

// Run recognizes every file of the batch on a bounded worker pool. Each
// outcome is tagged with the batch id and sent on updates (when non-nil) in
// completion order. Workers never touch anything but their own task; the
// receiver of updates is the only place outcomes are accumulated.
func Run(ctx context.Context, batch Batch, rec ocr.Recognizer, opts Options, updates chan<- ocr.Outcome) (Summary, error) {
	summary := Summary{Total: batch.Total()}
	if ctx == nil {
		ctx = context.Background()
	}

	jobs := make(chan Job)
	results := make(chan ocr.Outcome)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(batch.Files) {
		workers = len(batch.Files)
	}

	logger := slog.With("batch", batch.ID.String())
	logger.Info("batch started", "files", batch.Total(), "workers", workers, "profile", opts.Profile.Name)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, rec, opts.Profile)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			res.BatchID = batch.ID
			summary.Processed++
			switch res.Kind {
			case ocr.OutcomeSuccess:
				summary.Succeeded++
			case ocr.OutcomeEmpty:
				summary.Empty++
			default:
				summary.Errors++
				logger.Warn("task failed", "path", res.Path, "err", res.Err)
			}
			logger.Debug("task finished", "path", res.Path, "kind", res.Kind, "elapsed", res.Elapsed)
			if updates == nil {
				continue
			}
			select {
			case updates <- res:
			case <-ctx.Done():
			}
		}
	}()

	go func() {
		defer close(jobs)
		for _, path := range batch.Files {
			job := Job{Path: path, Display: filepath.Base(path)}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	logger.Info("batch finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"empty", summary.Empty,
		"errors", summary.Errors,
	)

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, nil
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- ocr.Outcome, rec ocr.Recognizer, profile ocr.Profile) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return
		}
		slog.Debug("task started", "file", job.Display)
		results <- ocr.Run(ctx, ocr.Task{Path: job.Path, Profile: profile}, rec)
	}
}
