package scanner

import (
	"image"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Result is the outcome of a scan: either Rectified or NotFound.
//
// The set of variants is closed; callers are expected to type switch over
// both.
type Result interface {
	isResult()
}

// Rectified is a successfully scanned page.
type Rectified struct {
	// Image is the binarized top-down view, every pixel 0 or 255.
	Image *image.Gray

	// Outline holds the page corners in the original image, ordered
	// top-left, top-right, bottom-right, bottom-left.
	Outline geometry.Quad

	// Size is the dimensions of Image.
	Size image.Point

	// Stages holds intermediate images when the scanner keeps them, nil
	// otherwise.
	Stages *Stages
}

// NotFound reports that none of the candidate contours simplified to four
// corners. It is a normal outcome, not an error.
type NotFound struct {
	// Candidates is the number of contours that were tried.
	Candidates int

	// Stages holds intermediate images when the scanner keeps them, nil
	// otherwise.
	Stages *Stages
}

func (Rectified) isResult() {}
func (NotFound) isResult()  {}

// Stages are the intermediate images of one scan, kept for debugging.
type Stages struct {
	// Working is the resized colour image detection ran on.
	Working *image.NRGBA

	// Edges is the Canny edge map of Working.
	Edges *image.Gray

	// Overlay is Working with the detected outline drawn on it. Nil when no
	// outline was found.
	Overlay *image.RGBA
}
