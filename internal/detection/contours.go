package detection

import (
	"image"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// pixel is an integer position in the edge map.
type pixel struct {
	X, Y int
}

// mooreOffsets lists the 8 neighbours clockwise on screen, starting west.
var mooreOffsets = [8]pixel{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// edgeMask is a read-only view of a binary edge image.
type edgeMask struct {
	on            []bool
	width, height int
}

func newEdgeMask(edges *image.Gray) *edgeMask {
	b := edges.Bounds()
	m := &edgeMask{
		on:     make([]bool, b.Dx()*b.Dy()),
		width:  b.Dx(),
		height: b.Dy(),
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.on[y*m.width+x] = edges.Pix[edges.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
		}
	}
	return m
}

func (m *edgeMask) at(p pixel) bool {
	if p.X < 0 || p.Y < 0 || p.X >= m.width || p.Y >= m.height {
		return false
	}
	return m.on[p.Y*m.width+p.X]
}

// findContours returns the outer border of every 8-connected component of
// the edge map, in raster order of each component's top-left-most pixel.
func findContours(edges *image.Gray) []geometry.Polygon {
	mask := newEdgeMask(edges)
	visited := make([]bool, len(mask.on))

	contours := make([]geometry.Polygon, 0)
	for y := 0; y < mask.height; y++ {
		for x := 0; x < mask.width; x++ {
			i := y*mask.width + x
			if !mask.on[i] || visited[i] {
				continue
			}
			size := floodFill(mask, visited, pixel{x, y})
			contours = append(contours, traceBorder(mask, pixel{x, y}, size))
		}
	}

	return contours
}

// floodFill marks the component containing start as visited and returns its
// pixel count.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large contours. Uses 8-connectivity (includes diagonal neighbors).
func floodFill(mask *edgeMask, visited []bool, start pixel) int {
	stack := []pixel{start}
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !mask.at(p) {
			continue
		}
		i := p.Y*mask.width + p.X
		if visited[i] {
			continue
		}

		visited[i] = true
		size++

		for _, d := range mooreOffsets {
			stack = append(stack, pixel{p.X + d.X, p.Y + d.Y})
		}
	}

	return size
}

// traceBorder walks the outer border of the component whose top-left-most
// pixel is start, using Moore-neighbour tracing. The walk stops when it is
// back on start and about to repeat its first move, so border pixels that
// are passed twice (thin spurs, junctions) are all recorded.
//
// start must be the first pixel of its component in raster order, so its
// west and upper neighbours are background. size bounds the walk for
// pathological shapes.
func traceBorder(mask *edgeMask, start pixel, size int) geometry.Polygon {
	border := geometry.Polygon{{X: float64(start.X), Y: float64(start.Y)}}

	first, back, ok := nextBorderPixel(mask, start, 0)
	if !ok {
		// Isolated pixel.
		return border
	}

	cur := first
	limit := 4*size + 8
	for step := 0; step < limit; step++ {
		next, nextBack, _ := nextBorderPixel(mask, cur, back)
		if cur == start && next == first {
			break
		}
		border = append(border, geometry.Point{X: float64(cur.X), Y: float64(cur.Y)})
		cur, back = next, nextBack
	}

	return border
}

// nextBorderPixel scans the neighbours of cur clockwise, beginning just after
// back (the direction of a background neighbour), and returns the first edge
// pixel together with the backtrack direction as seen from that pixel.
func nextBorderPixel(mask *edgeMask, cur pixel, back int) (pixel, int, bool) {
	for i := 1; i <= 8; i++ {
		dir := (back + i) % 8
		d := mooreOffsets[dir]
		cand := pixel{cur.X + d.X, cur.Y + d.Y}
		if !mask.at(cand) {
			continue
		}
		// The previously examined neighbour is background; express it
		// relative to cand.
		pd := mooreOffsets[(back+i-1)%8]
		prev := pixel{cur.X + pd.X, cur.Y + pd.Y}
		return cand, directionOf(cand, prev), true
	}
	return pixel{}, 0, false
}

// directionOf returns the mooreOffsets index of neighbour n around p.
func directionOf(p, n pixel) int {
	d := pixel{n.X - p.X, n.Y - p.Y}
	for i, o := range mooreOffsets {
		if o == d {
			return i
		}
	}
	return 0
}
