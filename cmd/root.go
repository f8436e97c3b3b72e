package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ocrdrop/internal/config"
	"ocrdrop/internal/engine"
	"ocrdrop/internal/logging"
	"ocrdrop/internal/ocr"
	"ocrdrop/internal/session"
	"ocrdrop/internal/tui"
)

var (
	configPath string
	logLevel   string
	logFile    string
	profile    string
)

var rootCmd = &cobra.Command{
	Use:   "ocrdrop [flags]",
	Short: "ocrdrop - extract text from dropped images with tesseract",
	Long: "ocrdrop extracts text from images with tesseract. Run without a command for the " +
		"interactive shell: drop images or folders onto the terminal, or type their paths.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
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

		shell := tui.NewShell(session.New(cfg.ExtensionSet()), rec, cfg.ProcessorOptions(prof))
		program := tea.NewProgram(shell, tea.WithAltScreen())
		_, err = program.Run()
		return err
	},
}

// Execute runs the command line. Errors exit with status 1; a missing OCR
// engine gets the prominent startup notice.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var setupErr *ocr.SetupError
		if errors.As(err, &setupErr) {
			fmt.Fprintln(os.Stderr, tui.Fatal(err.Error()))
			fmt.Fprintln(os.Stderr, "Install tesseract, or place a Tesseract-OCR folder next to the ocrdrop executable.")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath+" when present)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&logFile, "log-file", "", "append logs to this file")
	flags.StringVarP(&profile, "profile", "p", "", "OCR profile: robust or simple")
}

// prepare loads the config and installs the logger. Flags win over the
// config file. Without a log file, logs go to fallback.
func prepare(fallback io.Writer) (*config.Config, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	closeLog, err := logging.Setup(cfg.Log.Level, cfg.Log.File, fallback)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closeLog, nil
}

func newRecognizer(cfg *config.Config) (ocr.Recognizer, error) {
	setup, err := engine.Discover(cfg.EngineOptions())
	if err != nil {
		return nil, err
	}
	setup.Clients = cfg.Workers
	return engine.New(setup)
}

// closeRecognizer releases engines that hold native handles.
func closeRecognizer(rec ocr.Recognizer) {
	if c, ok := rec.(io.Closer); ok {
		_ = c.Close()
	}
}
