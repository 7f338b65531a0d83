// Package geometry provides the planar geometry behind document rectification.
//
// It covers three concerns:
//
//   - Corner ordering: OrderPoints turns four arbitrary corners into a Quad
//     ordered top-left, top-right, bottom-right, bottom-left.
//   - Projective transforms: ComputeHomography solves the 3x3 transform that
//     maps one quadrilateral exactly onto another.
//   - Resampling: WarpPerspective applies a transform to an image with
//     bilinear interpolation.
//
// # Coordinate System
//
// Coordinates are float64 pixel-centre positions: (0, 0) is the centre of the
// top-left pixel, X increases rightward and Y increases downward. A pixel at
// integer position (x, y) covers [x-0.5, x+0.5) x [y-0.5, y+0.5).
//
// # Errors
//
// Point sets that cannot define a projective mapping (coincident, collinear
// or nearly collinear corners) produce errors wrapping ErrDegenerateGeometry.
// Callers can test for it with errors.Is. No function in this package returns
// an image containing NaN-derived pixels.
//
// # Thread Safety
//
// All functions are pure. WarpPerspective spreads rows across goroutines but
// writes only to its own freshly allocated output.
package geometry
