// Package detection locates the outline of a paper document in a photograph.
//
// The Detector works on a resized grayscale copy of the photo: it blurs it,
// runs Canny edge detection, traces the outer border of every connected edge
// component and keeps the few largest by enclosed area. Each candidate is
// simplified with Douglas-Peucker; the first that reduces to exactly four
// vertices is taken as the document outline.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the top-left pixel centre of the working image
//   - X increases rightward
//   - Y increases downward
//
// Detection.Ratio maps working coordinates back onto the original photo;
// Detection.Corners applies it.
//
// # Limitations
//
// The detector assumes the page is the largest four-sided shape with a
// clear boundary against its background. It adds no checks on aspect ratio
// or convexity, so a large rectangular object (a table edge, a monitor)
// can be picked instead of the page. Pages whose outline is broken by
// glare, fingers or the image border are reported as not found.
package detection
