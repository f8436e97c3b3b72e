package ocr

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	adaptiveBlockSize = 11
	adaptiveOffset    = 2
	closeKernelSize   = 2
)

// Preprocess turns a decoded image into a single-channel buffer of the same
// dimensions, cleaned up for recognition according to the variant.
func Preprocess(img image.Image, variant Variant) *image.Gray {
	gray := grayscale(img)
	switch variant {
	case VariantSimple:
		return thresholdOtsu(gray)
	default:
		denoised := medianBlur3(gray)
		binary := adaptiveGaussianThreshold(denoised, adaptiveBlockSize, adaptiveOffset)
		return morphClose(binary, closeKernelSize)
	}
}

// grayscale uses imaging's luma weights (0.299, 0.587, 0.114) and drops
// the replicated channels.
func grayscale(img image.Image) *image.Gray {
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// medianBlur3 applies a 3x3 median filter with replicated borders.
func medianBlur3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(src.Rect)
	var window [9]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, 0, w-1)
					window[n] = int(src.Pix[yy*src.Stride+xx])
					n++
				}
			}
			sort.Ints(window[:])
			out.Pix[y*out.Stride+x] = uint8(window[4])
		}
	}
	return out
}

// gaussianKernel returns a normalized 1-D kernel with
// sigma = 0.3*((size-1)*0.5-1) + 0.8.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	kernel := make([]float64, size)
	center := float64(size-1) / 2
	sum := 0.0
	for i := range kernel {
		d := float64(i) - center
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// adaptiveGaussianThreshold sets a pixel to 255 when it is brighter than the
// Gaussian-weighted mean of its block minus offset, and to 0 otherwise.
func adaptiveGaussianThreshold(src *image.Gray, blockSize, offset int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(blockSize)
	half := blockSize / 2

	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			acc := 0.0
			for k, weight := range kernel {
				acc += weight * float64(row[clamp(x+k-half, 0, w-1)])
			}
			horiz[y*w+x] = acc
		}
	}

	out := image.NewGray(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for k, weight := range kernel {
				acc += weight * horiz[clamp(y+k-half, 0, h-1)*w+x]
			}
			mean := int(math.Round(acc))
			if int(src.Pix[y*src.Stride+x])-mean > -offset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// morphClose dilates then erodes with a size x size rectangle anchored at
// its center. Pixels outside the image do not take part.
func morphClose(src *image.Gray, size int) *image.Gray {
	return morph(morph(src, size, true), size, false)
}

func morph(src *image.Gray, size int, dilate bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	anchor := size / 2
	out := image.NewGray(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 255
			if dilate {
				v = 0
			}
			for ky := 0; ky < size; ky++ {
				yy := y + ky - anchor
				if yy < 0 || yy >= h {
					continue
				}
				for kx := 0; kx < size; kx++ {
					xx := x + kx - anchor
					if xx < 0 || xx >= w {
						continue
					}
					p := int(src.Pix[yy*src.Stride+xx])
					if dilate && p > v || !dilate && p < v {
						v = p
					}
				}
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out
}

// otsuThreshold picks the global threshold that maximizes between-class
// variance. A uniform image yields 0.
func otsuThreshold(src *image.Gray) int {
	var hist [256]int
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, p := range src.Pix[y*src.Stride : y*src.Stride+w] {
			hist[p]++
		}
	}
	total := float64(w * h)
	if total == 0 {
		return 0
	}

	mu := 0.0
	for i, n := range hist {
		mu += float64(i) * float64(n)
	}
	mu /= total

	const eps = 1.19209290e-07
	q1, mu1, best, bestSigma := 0.0, 0.0, 0, 0.0
	for i, n := range hist {
		p := float64(n) / total
		mu1 *= q1
		q1 += p
		q2 := 1 - q1
		if math.Min(q1, q2) < eps || math.Max(q1, q2) > 1-eps {
			continue
		}
		mu1 = (mu1 + float64(i)*p) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > bestSigma {
			bestSigma = sigma
			best = i
		}
	}
	return best
}

func thresholdOtsu(src *image.Gray) *image.Gray {
	t := otsuThreshold(src)
	out := image.NewGray(src.Rect)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if int(src.Pix[y*src.Stride+x]) > t {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
