package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.White}), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}

	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"png", pngBuf.Bytes(), KindPNG},
		{"gif", gifBuf.Bytes(), KindGIF},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}, KindJPEG},
		{"tiff le", []byte{0x49, 0x49, 0x2a, 0x00, 8, 0, 0, 0}, KindTIFF},
		{"tiff be", []byte{0x4d, 0x4d, 0x00, 0x2a, 0, 0, 0, 8}, KindTIFF},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), KindWebP},
		{"riff but not webp", []byte("RIFF\x10\x00\x00\x00AVI LIST"), KindUnknown},
		{"bmp", []byte("BM\x3a\x00\x00\x00\x00\x00"), KindBMP},
		{"plain pbm", []byte("P1\n1 1\n0"), KindPNM},
		{"raw ppm with comment", []byte("P6#x\n1 1"), KindPNM},
		{"text", []byte("hello world\n"), KindUnknown},
		{"P7 is not netpbm", []byte("P7 WIDTH 1\n"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHeader(tc.header)
			if err != nil {
				t.Fatalf("DetectHeader: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSniffFileShort(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := SniffFile(empty); err == nil {
		t.Fatalf("expected error for empty file")
	}

	tiny := filepath.Join(dir, "tiny.pbm")
	if err := os.WriteFile(tiny, []byte("P1 1 1 1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	kind, err := SniffFile(tiny)
	if err != nil {
		t.Fatalf("SniffFile: %v", err)
	}
	if kind != KindPNM {
		t.Fatalf("got %s, want pnm", kind)
	}
}

func TestDecodeNetpbmPlain(t *testing.T) {
	src := "P1\n# a comment\n3 2\n1 0 1\n010\n"
	img, err := DecodeNetpbm(bytes.NewReader([]byte(src)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", img)
	}
	want := [][]uint8{{0, 255, 0}, {255, 0, 255}}
	for y, row := range want {
		for x, v := range row {
			if got := gray.GrayAt(x, y).Y; got != v {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, v)
			}
		}
	}
}

func TestDecodeNetpbmRaw(t *testing.T) {
	t.Run("pgm 16-bit", func(t *testing.T) {
		src := append([]byte("P5 2 1 65535\n"), 0xff, 0xff, 0x00, 0x00)
		img, err := DecodeNetpbm(bytes.NewReader(src))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		gray := img.(*image.Gray)
		if gray.GrayAt(0, 0).Y != 255 || gray.GrayAt(1, 0).Y != 0 {
			t.Fatalf("unexpected pixels: %v", gray.Pix)
		}
	})

	t.Run("ppm", func(t *testing.T) {
		src := append([]byte("P6\n1 1\n255\n"), 10, 20, 30)
		img, err := DecodeNetpbm(bytes.NewReader(src))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		rgba, ok := img.(*image.RGBA)
		if !ok {
			t.Fatalf("expected *image.RGBA, got %T", img)
		}
		if got := rgba.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
			t.Fatalf("unexpected pixel: %v", got)
		}
	})

	t.Run("pbm", func(t *testing.T) {
		src := append([]byte("P4\n9 1\n"), 0x80, 0x80)
		img, err := DecodeNetpbm(bytes.NewReader(src))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		gray := img.(*image.Gray)
		if gray.GrayAt(0, 0).Y != 0 || gray.GrayAt(1, 0).Y != 255 || gray.GrayAt(8, 0).Y != 0 {
			t.Fatalf("unexpected pixels: %v", gray.Pix)
		}
	})
}

func TestDecodeNetpbmErrors(t *testing.T) {
	cases := map[string]string{
		"truncated raster": "P5 2 2 255\n\x01",
		"zero width":       "P2 0 1 255\n",
		"sample too big":   "P2 1 1 10\n11\n",
		"bad bit":          "P1 1 1\n2",
		"oversized":        "P5 16000000 16000000 255\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeNetpbm(bytes.NewReader([]byte(src))); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestImageDecodeRegistered(t *testing.T) {
	_, format, err := image.Decode(bytes.NewReader([]byte("P2 1 1 255\n128\n")))
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	if format != "pnm" {
		t.Fatalf("format = %q, want pnm", format)
	}
}
