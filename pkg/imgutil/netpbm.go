package imgutil

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Netpbm (PBM, PGM, PPM in plain and raw form) has no decoder in the
// standard library or golang.org/x/image. Registering it here lets
// image.Decode and imaging.Decode handle .pbm/.pgm/.ppm/.pnm files.
func init() {
	for _, magic := range []string{"P1", "P2", "P3", "P4", "P5", "P6"} {
		image.RegisterFormat("pnm", magic, DecodeNetpbm, DecodeNetpbmConfig)
	}
}

var ErrInvalidNetpbm = errors.New("invalid netpbm data")

// MaxPixels bounds width*height of any image decoded here, so a forged
// header cannot force a huge allocation before the raster is read.
const MaxPixels = 1 << 26

type pnmHeader struct {
	format byte
	width  int
	height int
	maxval int
}

func (h pnmHeader) bitmap() bool { return h.format == '1' || h.format == '4' }
func (h pnmHeader) color() bool  { return h.format == '3' || h.format == '6' }
func (h pnmHeader) raw() bool    { return h.format >= '4' }

// DecodeNetpbmConfig returns the dimensions and color model of a Netpbm image.
func DecodeNetpbmConfig(r io.Reader) (image.Config, error) {
	h, err := readPNMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	model := color.GrayModel
	if h.color() {
		model = color.RGBAModel
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}

// DecodeNetpbm decodes a P1-P6 image. Bitmaps and graymaps decode to
// *image.Gray, pixmaps to *image.RGBA. Samples are scaled to 8 bits.
func DecodeNetpbm(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPNMHeader(br)
	if err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, h.width, h.height)
	if h.bitmap() {
		img := image.NewGray(rect)
		if h.raw() {
			err = readRawBitmap(br, img, h)
		} else {
			err = readPlainBitmap(br, img, h)
		}
		if err != nil {
			return nil, err
		}
		return img, nil
	}

	channels := 1
	if h.color() {
		channels = 3
	}
	sample := plainSampler(br)
	if h.raw() {
		sample = rawSampler(br, h.maxval)
	}

	var gray *image.Gray
	var rgba *image.RGBA
	if h.color() {
		rgba = image.NewRGBA(rect)
	} else {
		gray = image.NewGray(rect)
	}

	px := make([]uint8, channels)
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			for c := 0; c < channels; c++ {
				v, err := sample()
				if err != nil {
					return nil, fmt.Errorf("%w: pixel (%d,%d): %v", ErrInvalidNetpbm, x, y, err)
				}
				if v > h.maxval {
					return nil, fmt.Errorf("%w: sample %d exceeds maxval %d", ErrInvalidNetpbm, v, h.maxval)
				}
				px[c] = uint8((v*255 + h.maxval/2) / h.maxval)
			}
			if rgba != nil {
				rgba.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: 0xff})
			} else {
				gray.SetGray(x, y, color.Gray{Y: px[0]})
			}
		}
	}

	if rgba != nil {
		return rgba, nil
	}
	return gray, nil
}

func readPNMHeader(br *bufio.Reader) (pnmHeader, error) {
	var h pnmHeader
	magic := make([]byte, 2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return h, err
	}
	if magic[0] != 'P' || magic[1] < '1' || magic[1] > '6' {
		return h, fmt.Errorf("%w: bad magic %q", ErrInvalidNetpbm, magic)
	}
	h.format = magic[1]

	var err error
	if h.width, err = readPNMInt(br); err != nil {
		return h, err
	}
	if h.height, err = readPNMInt(br); err != nil {
		return h, err
	}
	if h.width <= 0 || h.height <= 0 {
		return h, fmt.Errorf("%w: bad dimensions %dx%d", ErrInvalidNetpbm, h.width, h.height)
	}
	if int64(h.width)*int64(h.height) > MaxPixels {
		return h, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidNetpbm, h.width, h.height, MaxPixels)
	}

	h.maxval = 1
	if !h.bitmap() {
		if h.maxval, err = readPNMInt(br); err != nil {
			return h, err
		}
		if h.maxval <= 0 || h.maxval > 65535 {
			return h, fmt.Errorf("%w: bad maxval %d", ErrInvalidNetpbm, h.maxval)
		}
	}

	// A single whitespace byte separates the header from a raw raster.
	if h.raw() {
		b, err := br.ReadByte()
		if err != nil {
			return h, err
		}
		if !isPNMSpace(b) {
			return h, fmt.Errorf("%w: missing raster separator", ErrInvalidNetpbm)
		}
	}
	return h, nil
}

func readPNMInt(br *bufio.Reader) (int, error) {
	if err := skipPNMSpace(br); err != nil {
		return 0, err
	}
	n, digits := 0, 0
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && digits > 0 {
				return n, nil
			}
			return 0, err
		}
		if b < '0' || b > '9' {
			_ = br.UnreadByte()
			break
		}
		n = n*10 + int(b-'0')
		digits++
		if n > 1<<24 {
			return 0, fmt.Errorf("%w: number too large", ErrInvalidNetpbm)
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("%w: expected number", ErrInvalidNetpbm)
	}
	return n, nil
}

func skipPNMSpace(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == '#':
			if _, err := br.ReadString('\n'); err != nil {
				return err
			}
		case isPNMSpace(b):
		default:
			return br.UnreadByte()
		}
	}
}

func isPNMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func plainSampler(br *bufio.Reader) func() (int, error) {
	return func() (int, error) { return readPNMInt(br) }
}

func rawSampler(br *bufio.Reader, maxval int) func() (int, error) {
	wide := maxval > 255
	return func() (int, error) {
		hi, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !wide {
			return int(hi), nil
		}
		lo, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		return int(hi)<<8 | int(lo), nil
	}
}

// In PBM a set bit is black.
func readPlainBitmap(br *bufio.Reader, img *image.Gray, h pnmHeader) error {
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			if err := skipPNMSpace(br); err != nil {
				return fmt.Errorf("%w: pixel (%d,%d): %v", ErrInvalidNetpbm, x, y, err)
			}
			b, err := br.ReadByte()
			if err != nil {
				return err
			}
			switch b {
			case '0':
				img.SetGray(x, y, color.Gray{Y: 0xff})
			case '1':
				img.SetGray(x, y, color.Gray{Y: 0})
			default:
				return fmt.Errorf("%w: bad bit %q", ErrInvalidNetpbm, b)
			}
		}
	}
	return nil
}

func readRawBitmap(br *bufio.Reader, img *image.Gray, h pnmHeader) error {
	row := make([]byte, (h.width+7)/8)
	for y := 0; y < h.height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrInvalidNetpbm, y, err)
		}
		for x := 0; x < h.width; x++ {
			v := uint8(0xff)
			if row[x/8]&(0x80>>uint(x%8)) != 0 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return nil
}
