package ocr

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ocrdrop/pkg/imgutil"
)

// MaxPixels is the largest width*height Decode accepts.
const MaxPixels = imgutil.MaxPixels

var ErrImageTooLarge = errors.New("image dimensions exceed the supported size")

// Decode opens the image at path, decodes it and applies its EXIF
// orientation. Every failure is a *DecodeError.
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if kind == imgutil.KindUnknown {
		return nil, &DecodeError{Path: path, Err: errors.New("unrecognized image format")}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	// Header first: the pixel buffer is allocated from it before any
	// pixel is read.
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("decode %s header: %w", kind, err)}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("decode %s: %w", kind, err)}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Path: path, Err: errors.New("image has no pixels")}
	}

	if kind.HasExif() {
		orientation, err := readOrientation(file)
		if err != nil {
			slog.Debug("exif orientation unavailable", "path", path, "err", err)
		}
		img = applyOrientation(img, orientation)
	}
	return img, nil
}

// readOrientation returns the EXIF orientation tag (1-8), or 0 when the
// file has none.
func readOrientation(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	// The flat-data readers expect a bare TIFF header, so the EXIF block is
	// cut out of the JPEG or WebP container first.
	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if err != nil {
		if errorsIsNoExif(err) {
			return 0, nil
		}
		return 0, err
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 0, err
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		switch v := tag.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				return int(v[0]), nil
			}
		case uint16:
			return int(v), nil
		}
	}
	return 0, nil
}

func errorsIsNoExif(err error) bool {
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
