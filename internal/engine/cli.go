package engine

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"ocrdrop/internal/ocr"
)

// TesseractCLI runs the tesseract binary once per image, piping the PNG on
// stdin and reading the text from stdout.
type TesseractCLI struct {
	binary string
	env    []string
}

func NewTesseractCLI(setup Setup) *TesseractCLI {
	binary := setup.Binary
	if binary == "" {
		binary = binaryName()
	}
	return &TesseractCLI{binary: binary, env: setup.Env()}
}

func (t *TesseractCLI) Name() string { return "tesseract" }

// Command builds the command for one recognition call.
func (t *TesseractCLI) Command(ctx context.Context, image []byte, settings ocr.Settings) *exec.Cmd {
	args := append([]string{"stdin", "stdout"}, settings.Args()...)
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Stdin = bytes.NewReader(image)
	if len(t.env) > 0 {
		cmd.Env = append(os.Environ(), t.env...)
	}
	return cmd
}

func (t *TesseractCLI) Recognize(ctx context.Context, image []byte, settings ocr.Settings) (string, error) {
	cmd := t.Command(ctx, image, settings)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running tesseract", "binary", t.binary, "config", settings.String(), "bytes", len(image))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &ocr.EngineError{Engine: t.Name(), Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.String(), nil
}
