//go:build libtesseract

package engine

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"github.com/otiai10/gosseract/v2"

	"ocrdrop/internal/ocr"
)

// Library recognizes in-process through libtesseract. A gosseract client is
// not safe for concurrent use, so each call takes one from a free list;
// Close releases them.
type Library struct {
	clients *freeList[*gosseract.Client]
}

func newLibrary(setup Setup) (ocr.Recognizer, error) {
	if setup.TessdataDir != "" {
		if err := os.Setenv("TESSDATA_PREFIX", setup.TessdataDir); err != nil {
			return nil, &ocr.SetupError{Err: err}
		}
	}
	size := setup.Clients
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Library{clients: newFreeList(size, gosseract.NewClient, func(c *gosseract.Client) { _ = c.Close() })}, nil
}

func (l *Library) Name() string { return "libtesseract" }

func (l *Library) Recognize(ctx context.Context, image []byte, settings ocr.Settings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := l.clients.get()
	defer l.clients.put(client)

	if err := configure(client, settings); err != nil {
		return "", &ocr.EngineError{Engine: l.Name(), Err: err}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", &ocr.EngineError{Engine: l.Name(), Err: err}
	}
	text, err := client.Text()
	if err != nil {
		return "", &ocr.EngineError{Engine: l.Name(), Err: err}
	}
	return text, nil
}

func (l *Library) Close() error {
	l.clients.close()
	return nil
}

func configure(client *gosseract.Client, settings ocr.Settings) error {
	if settings.Language != "" {
		if err := client.SetLanguage(settings.Language); err != nil {
			return err
		}
	}
	if settings.PSM >= 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(settings.PSM)); err != nil {
			return err
		}
	}
	if settings.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(settings.DPI)); err != nil {
			return err
		}
	}
	if err := client.SetWhitelist(settings.Whitelist); err != nil {
		return err
	}
	for _, v := range settings.Vars {
		if err := client.SetVariable(gosseract.SettableVariable(v.Name), v.Value); err != nil {
			return err
		}
	}
	return nil
}
