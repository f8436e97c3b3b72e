package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
	"ocrdrop/internal/results"
	"ocrdrop/internal/session"
	"ocrdrop/internal/tui"
)

var runOutput string

var runCmd = &cobra.Command{
	Use:   "run [flags] <path>...",
	Short: "OCR images and folders once, then save or print the text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := prepare(io.Discard)
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

		sess := session.New(cfg.ExtensionSet())
		batch, err := sess.Begin(args)
		for _, notice := range sess.Notices() {
			fmt.Fprintln(os.Stderr, notice)
		}
		if err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(sigCtx)
		defer cancel()

		outcomes := make(chan ocr.Outcome, 64)
		updates := make(chan ocr.Outcome, 64)
		model := tui.NewModel(batch.Total(), updates, cancel)
		program := tea.NewProgram(model, tea.WithOutput(os.Stderr))

		uiDone := make(chan struct{})
		go func() {
			_, _ = program.Run()
			// Keep draining if the view exits early so the batch never stalls.
			for range updates {
			}
			close(uiDone)
		}()

		// This loop is the only writer of the session.
		collected := make(chan struct{})
		go func() {
			defer close(collected)
			defer close(updates)
			for o := range outcomes {
				sess.Apply(o)
				updates <- o
			}
		}()

		summary, err := processor.Run(ctx, batch, rec, cfg.ProcessorOptions(prof), outcomes)
		close(outcomes)
		<-collected
		<-uiDone
		sess.Finish(batch.ID)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, tui.RenderSummary(tui.BatchRows(summary, prof.Name)))
		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "Stopped early: %d of %d files were processed.\n", summary.Processed, summary.Total)
		}
		notices := sess.Notices()[len(batch.Warnings):]
		for _, notice := range notices {
			fmt.Fprintln(os.Stderr, notice)
		}

		if runOutput == "" {
			_, err := sess.WriteTo(os.Stdout)
			return err
		}
		if err := sess.Save(runOutput); err != nil {
			if errors.Is(err, results.ErrNothingToSave) {
				fmt.Fprintln(os.Stderr, "No text was extracted; nothing was saved.")
				return nil
			}
			return err
		}
		outPath := runOutput
		if abs, absErr := filepath.Abs(runOutput); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(os.Stderr, "Extracted text written to: %s\n", outPath)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "save the extracted text to this file instead of printing it")

	rootCmd.AddCommand(runCmd)
}
