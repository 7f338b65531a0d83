// Package rectify flattens a photographed document onto an upright rectangle.
package rectify

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// maxPixels caps the output area so a wild outline cannot exhaust memory.
const maxPixels = 1 << 28

// TargetSize returns the output dimensions for an ordered quad: the longer
// of the top and bottom edges by the longer of the left and right edges,
// rounded, and never smaller than 1x1.
func TargetSize(q geometry.Quad) image.Point {
	width := math.Max(
		geometry.Distance(q[geometry.TopLeft], q[geometry.TopRight]),
		geometry.Distance(q[geometry.BottomLeft], q[geometry.BottomRight]),
	)
	height := math.Max(
		geometry.Distance(q[geometry.TopLeft], q[geometry.BottomLeft]),
		geometry.Distance(q[geometry.TopRight], q[geometry.BottomRight]),
	)
	return image.Pt(side(width), side(height))
}

func side(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v > maxPixels {
		return maxPixels
	}
	return int(math.Round(v))
}

// Rectify maps the region of orig enclosed by outline onto an upright
// rectangle of TargetSize.
//
// outline may be in any corner order and in the coordinates of a resized
// copy of orig; ratio scales it back onto orig (use 1 when outline is already
// in orig's coordinates). The warp always samples the full-resolution orig.
//
// Errors:
//   - imaging.ErrNoImage when orig is nil
//   - an invalid-ratio error when ratio is not a positive finite number
//   - an error wrapping geometry.ErrDegenerateGeometry when the outline has
//     duplicate or collinear corners
func Rectify(orig image.Image, outline geometry.Quad, ratio float64) (*image.NRGBA, error) {
	if orig == nil {
		return nil, imaging.ErrNoImage
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, fmt.Errorf("invalid scale ratio %v", ratio)
	}

	q := geometry.OrderPoints(outline.Scale(ratio))
	size := TargetSize(q)
	if size.X*size.Y > maxPixels {
		return nil, fmt.Errorf("output %dx%d exceeds %d pixels", size.X, size.Y, maxPixels)
	}

	h, err := geometry.ComputeHomography(q, destination(size))
	if err != nil {
		return nil, fmt.Errorf("failed to compute perspective transform: %w", err)
	}

	return geometry.WarpPerspective(orig, h, size.X, size.Y)
}

// destination returns the pixel-centre corners of a size.X x size.Y image. A
// one-pixel side is widened to one unit so the four corners stay distinct.
func destination(size image.Point) [4]geometry.Point {
	right := math.Max(float64(size.X-1), 1)
	bottom := math.Max(float64(size.Y-1), 1)
	return [4]geometry.Point{
		{X: 0, Y: 0},
		{X: right, Y: 0},
		{X: right, Y: bottom},
		{X: 0, Y: bottom},
	}
}
