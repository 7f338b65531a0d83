package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// ToGray converts img to an 8-bit luminance image using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B). The result always starts at (0, 0) and
// img is left untouched.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}

	nrgba := imaging.Grayscale(img)
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// Blur smooths a grayscale image with a Gaussian of the given radius.
// A radius of 2 gives the 5-tap kernel used ahead of edge detection; a
// non-positive radius returns an unblurred copy.
func Blur(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return ToGray(gray)
	}
	return ToGray(blur.Gaussian(gray, radius))
}
