// Package binarize turns a grayscale page into pure black and white with a
// locally adaptive threshold, so that shadows and uneven lighting across a
// photographed page do not swallow the text.
package binarize

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Options controls the adaptive threshold.
type Options struct {
	// BlockSize is the odd neighbourhood size in pixels. Default: 11.
	BlockSize int `json:"block_size"`

	// Offset is subtracted from the local mean. Default: 10.
	Offset float64 `json:"offset"`
}

// DefaultOptions returns a block size of 11 and an offset of 10.
func DefaultOptions() Options {
	return Options{BlockSize: 11, Offset: 10}
}

// Validate checks that BlockSize is odd and at least 3.
func (o Options) Validate() error {
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		return fmt.Errorf("block size must be an odd number >= 3, got %d", o.BlockSize)
	}
	if math.IsNaN(o.Offset) || math.IsInf(o.Offset, 0) {
		return fmt.Errorf("offset must be finite, got %v", o.Offset)
	}
	return nil
}

// Binarize converts img to grayscale and thresholds every pixel against a
// Gaussian-weighted mean of its neighbourhood minus Offset. Pixels brighter
// than their threshold become 255, all others 0.
//
// The Gaussian has sigma (BlockSize-1)/6 and is truncated at four sigma;
// the image is mirrored at its borders. The result has the same size as img,
// anchored at (0, 0), and holds no values other than 0 and 255.
func Binarize(img image.Image, opts Options) (*image.Gray, error) {
	if img == nil {
		return nil, imaging.ErrNoImage
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, imaging.ErrNoImage
	}

	gray := imaging.ToGray(img)
	thresh := localThreshold(gray, opts)

	out := image.NewGray(gray.Bounds())
	w := gray.Bounds().Dx()
	parallel.Line(gray.Bounds().Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			dst := out.Pix[y*out.Stride : y*out.Stride+w]
			for x, v := range src {
				if float64(v) > thresh[y*w+x] {
					dst[x] = 255
				}
			}
		}
	})

	return out, nil
}

// localThreshold returns the per-pixel threshold surface, row-major, for a
// gray image anchored at (0, 0).
func localThreshold(gray *image.Gray, opts Options) []float64 {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	k := gaussianKernel(opts.BlockSize)
	r := len(k) / 2

	// Horizontal pass
	rows := make([]float64, w*h)
	parallel.Line(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			line := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			for x := 0; x < w; x++ {
				var sum float64
				for i, wt := range k {
					sum += wt * float64(line[reflect(x+i-r, w)])
				}
				rows[y*w+x] = sum
			}
		}
	})

	// Vertical pass
	thresh := make([]float64, w*h)
	parallel.Line(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for i, wt := range k {
					sum += wt * rows[reflect(y+i-r, h)*w+x]
				}
				thresh[y*w+x] = sum - opts.Offset
			}
		}
	})

	return thresh
}

// gaussianKernel returns normalized 1-D weights for the given block size:
// sigma = (block-1)/6, radius = int(4*sigma + 0.5).
func gaussianKernel(block int) []float64 {
	sigma := float64(block-1) / 6
	r := int(4*sigma + 0.5)

	k := make([]float64, 2*r+1)
	var sum float64
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect maps an out-of-range index back into [0, n) by mirroring about the
// outer pixel edges: ... c b a | a b c ... c b a | a b c ...
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
