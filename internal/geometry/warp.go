package geometry

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// WarpPerspective renders the region of src selected by h into a new
// width x height image, where h maps source coordinates to destination
// coordinates.
//
// Every destination pixel centre is pulled back through the inverse of h and
// sampled bilinearly from src. Samples that fall outside the source (more
// than half a pixel beyond the outermost pixel centres) are opaque black.
// src is never modified; the result is always exactly width x height.
func WarpPerspective(src image.Image, h Homography, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	in, ok := src.(*image.NRGBA)
	if !ok {
		in = imaging.Clone(src)
	}
	sb := in.Bounds()
	sw, sh := sb.Dx(), sb.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	if sw == 0 || sh == 0 {
		fillOpaqueBlack(out)
		return out, nil
	}

	parallel.Line(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := out.Pix[y*out.Stride : y*out.Stride+width*4]
			for x := 0; x < width; x++ {
				px := row[x*4 : x*4+4]
				p, ok := inv.Apply(Point{X: float64(x), Y: float64(y)})
				if !ok || !inside(p, sw, sh) {
					px[0], px[1], px[2], px[3] = 0, 0, 0, 0xff
					continue
				}
				sampleBilinear(in, p.X, p.Y, px)
			}
		}
	})

	return out, nil
}

func inside(p Point, w, h int) bool {
	return p.X >= -0.5 && p.Y >= -0.5 && p.X <= float64(w)-0.5 && p.Y <= float64(h)-0.5
}

// sampleBilinear writes the interpolated NRGBA value at (fx, fy), given in
// pixel-centre coordinates relative to img's bounds, into dst. Neighbours
// beyond the edge are clamped.
func sampleBilinear(img *image.NRGBA, fx, fy float64, dst []uint8) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	x0 = clampInt(x0, 0, w-1)
	y0 = clampInt(y0, 0, h-1)

	i00 := y0*img.Stride + x0*4
	i10 := y0*img.Stride + x1*4
	i01 := y1*img.Stride + x0*4
	i11 := y1*img.Stride + x1*4

	for c := 0; c < 4; c++ {
		top := float64(img.Pix[i00+c])*(1-tx) + float64(img.Pix[i10+c])*tx
		bottom := float64(img.Pix[i01+c])*(1-tx) + float64(img.Pix[i11+c])*tx
		v := top*(1-ty) + bottom*ty
		dst[c] = uint8(math.Min(255, math.Max(0, math.Round(v))))
	}
}

func fillOpaqueBlack(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
