package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
	"ocrdrop/internal/results"
	"ocrdrop/internal/session"
	"ocrdrop/internal/watch"
)

var watchOutput string

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <dir>",
	Short: "OCR images as they are dropped into a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		cfg, closeLog, err := prepare(os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()

		prof, err := cfg.ProfileFor(profile)
		if err != nil {
			return err
		}
		rec, err := newRecognizer(cfg)
		if err != nil {
			return err
		}
		defer closeRecognizer(rec)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sess := session.New(cfg.ExtensionSet())
		drops := make(chan []string)
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- watch.Watch(ctx, dir, watch.Options{
				Extensions: sess.Extensions(),
				Ignore:     isHidden,
			}, drops)
		}()

		fmt.Fprintf(os.Stderr, "Watching %s for %s (ctrl+c to stop)\n", dir, sess.Extensions())
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-watchErr:
				return err
			case paths := <-drops:
				if err := runDrop(ctx, sess, paths, rec, cfg.ProcessorOptions(prof)); err != nil {
					return err
				}
			}
		}
	},
}

// runDrop processes one group of dropped files, printing texts as they
// arrive and appending them to the output file when one is set.
func runDrop(ctx context.Context, sess *session.Session, paths []string, rec ocr.Recognizer, opts processor.Options) error {
	batch, err := sess.Begin(paths)
	printNotices(sess.Notices())
	if err != nil {
		if errors.Is(err, processor.ErrNoImages) {
			return nil
		}
		return err
	}

	outcomes := make(chan ocr.Outcome)
	runErr := make(chan error, 1)
	go func() {
		defer close(outcomes)
		_, err := processor.Run(ctx, batch, rec, opts, outcomes)
		runErr <- err
	}()

	for o := range outcomes {
		sess.Apply(o)
		if o.Kind == ocr.OutcomeSuccess {
			fmt.Fprintf(os.Stdout, "==> %s\n%s\n\n", o.Path, o.Text)
		} else {
			fmt.Fprintln(os.Stderr, o.Message())
		}
	}
	sess.Finish(batch.ID)
	fmt.Fprintln(os.Stderr, sess.Progress().String())
	if err := <-runErr; err != nil {
		return err
	}

	if watchOutput == "" {
		return nil
	}
	if err := results.AppendFile(watchOutput, sess.Texts()); err != nil {
		return err
	}
	slog.Info("results appended", "path", watchOutput, "texts", len(sess.Texts()))
	return nil
}

func printNotices(notices []string) {
	for _, n := range notices {
		fmt.Fprintln(os.Stderr, n)
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "append extracted text to this file")

	rootCmd.AddCommand(watchCmd)
}
