// Package imaging prepares scanned document images for OCR.
package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Contrast stretch bounds, as fractions of the pixel count.
const (
	lowPercentile  = 0.01
	highPercentile = 0.99
)

// Options tunes Normalize.
type Options struct {
	// MaxDimension scales the image down so its longer side fits. Zero
	// disables scaling.
	MaxDimension int
}

// Decode reads any registered image format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Normalize returns a grayscale copy of img with its luminance stretched to
// the full 0-255 range.
func Normalize(img image.Image, opts Options) *image.Gray {
	src := downscale(img, opts.MaxDimension)
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	stretch(gray)
	return gray
}

// NormalizeFile decodes src, normalizes it and writes a PNG to w.
func NormalizeFile(src string, w io.Writer, opts Options) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return err
	}
	if err := png.Encode(w, Normalize(img, opts)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func downscale(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if max <= 0 || (w <= max && h <= max) {
		return img
	}
	if w >= h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// stretch maps the low/high luminance percentiles onto 0 and 255 in place.
func stretch(g *image.Gray) {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)
	if total == 0 {
		return
	}

	lo := percentile(hist, int(float64(total)*lowPercentile))
	hi := percentile(hist, int(float64(total)*highPercentile))
	if hi <= lo {
		return
	}

	var lut [256]uint8
	scale := 255.0 / float64(hi-lo)
	for i := range lut {
		switch {
		case i <= lo:
			lut[i] = 0
		case i >= hi:
			lut[i] = 255
		default:
			lut[i] = uint8(float64(i-lo)*scale + 0.5)
		}
	}
	for i, p := range g.Pix {
		g.Pix[i] = lut[p]
	}
}

// percentile returns the smallest level whose cumulative count exceeds rank.
func percentile(hist [256]int, rank int) int {
	seen := 0
	for level, n := range hist {
		seen += n
		if seen > rank {
			return level
		}
	}
	return 255
}
