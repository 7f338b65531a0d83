package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Canny performs Canny edge detection on a (typically pre-blurred)
// grayscale image and returns a binary edge map where edges are 255 and
// everything else is 0. The output has the same size as gray, anchored at
// (0, 0).
//
// Parameters:
//   - gray: Source luminance image.
//   - low: Gradient magnitude at or above which a pixel may become an edge
//     if it is connected to a strong edge.
//   - high: Gradient magnitude at or above which a pixel is always an edge.
//
// Thresholds are on the raw Sobel magnitude of 8-bit intensities, so a
// hard black/white step scores about 1000 and typical values are 75/200.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y;
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx).
//
//  2. Non-maximum suppression: a pixel survives only if it is a local maximum
//     along its gradient direction. On a two-pixel plateau only the pixel
//     further along the gradient survives, so edges stay one pixel wide.
//
//  3. Hysteresis: strong pixels seed a depth-first walk through
//     8-connected weak pixels; everything reached is an edge. Only pixels
//     that survived suppression take part, so a zero low threshold cannot
//     grow an edge across flat regions.
//
// The outermost row and column of the image never contain edges.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return out
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	parallel.Line(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
					at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
				gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
					at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
				i := y*width + x
				magnitude[i] = math.Hypot(gx, gy)
				direction[i] = math.Atan2(gy, gx)
			}
		}
	})

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	parallel.Line(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			if y == 0 || y == height-1 {
				continue
			}
			for x := 1; x < width-1; x++ {
				i := y*width + x
				mag := magnitude[i]
				if mag < low {
					continue
				}

				// n1 lies against the gradient, n2 along it.
				var n1, n2 float64
				angle := direction[i]
				switch {
				case angle >= -math.Pi/8 && angle < math.Pi/8,
					angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
					n1, n2 = magnitude[i-1], magnitude[i+1]
					if math.Abs(angle) >= math.Pi/2 {
						n1, n2 = n2, n1
					}
				case angle >= math.Pi/8 && angle < 3*math.Pi/8:
					n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
				case angle >= -7*math.Pi/8 && angle < -5*math.Pi/8:
					n1, n2 = magnitude[i+width+1], magnitude[i-width-1]
				case angle >= 3*math.Pi/8 && angle < 5*math.Pi/8:
					n1, n2 = magnitude[i-width], magnitude[i+width]
				case angle >= -5*math.Pi/8 && angle < -3*math.Pi/8:
					n1, n2 = magnitude[i+width], magnitude[i-width]
				case angle >= 5*math.Pi/8 && angle < 7*math.Pi/8:
					n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
				default:
					n1, n2 = magnitude[i+width-1], magnitude[i-width+1]
				}

				if mag >= n1 && mag > n2 {
					suppressed[i] = mag
				}
			}
		}
	})

	// Double threshold and edge tracking by hysteresis
	queue := make([]int, 0, width)
	for i, v := range suppressed {
		if v > 0 && v >= high && out.Pix[i/width*out.Stride+i%width] == 0 {
			out.Pix[i/width*out.Stride+i%width] = 255
			queue = append(queue, i)
		}
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cx, cy := cur%width, cur/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					o := ny*out.Stride + nx
					if out.Pix[o] == 0 && suppressed[n] > 0 && suppressed[n] >= low {
						out.Pix[o] = 255
						queue = append(queue, n)
					}
				}
			}
		}
	}

	return out
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
