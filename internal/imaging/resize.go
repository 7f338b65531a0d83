package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ResizeToHeight resamples img to exactly height rows, preserving the aspect
// ratio, and returns the resized copy together with the scale factor
// original height / height.
//
// Multiplying a coordinate in the resized image by the returned ratio maps
// it back onto the original. Images that are already shorter than height are
// enlarged, so the ratio can be below 1.
func ResizeToHeight(img image.Image, height int) (*image.NRGBA, float64, error) {
	if height <= 0 {
		return nil, 0, fmt.Errorf("invalid target height %d", height)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, ErrNoImage
	}

	ratio := float64(b.Dy()) / float64(height)
	width := int(math.Round(float64(b.Dx()) / ratio))
	if width < 1 {
		width = 1
	}

	return imaging.Resize(img, width, height, imaging.Linear), ratio, nil
}
