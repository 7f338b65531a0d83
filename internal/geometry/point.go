package geometry

import (
	"math"
	"sort"
)

// Point is a 2D coordinate in image space (X rightward, Y downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale multiplies both coordinates by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Quad is four corner points. Values returned by OrderPoints are ordered
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// Corner indices into an ordered Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Scale returns q with every point multiplied by f.
func (q Quad) Scale(f float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = p.Scale(f)
	}
	return out
}

// Polygon returns the corners as a closed polygon.
func (q Quad) Polygon() Polygon {
	return Polygon{q[0], q[1], q[2], q[3]}
}

// OrderPoints arranges four corners as top-left, top-right, bottom-right,
// bottom-left.
//
// The top-left and bottom-right corners have the smallest and largest x+y;
// the top-right and bottom-left corners have the smallest and largest y-x.
// Equal keys are resolved by y, then x, so the result depends only on the set
// of points and never on their input order. When the sum and difference rules
// would give one point two roles, as with a square turned exactly 45°, the
// points are instead taken clockwise around their centroid starting from the
// top-left pick.
//
// Degenerate input (duplicate or collinear points) yields some ordering but
// it carries no geometric meaning; callers reject such quads upstream.
func OrderPoints(pts [4]Point) Quad {
	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.Y - p.X }

	tl := pick(pts, sum, false)
	br := pick(pts, sum, true)
	tr := pick(pts, diff, false)
	bl := pick(pts, diff, true)

	if distinct(tl, tr, br, bl) {
		return Quad{pts[tl], pts[tr], pts[br], pts[bl]}
	}
	return clockwiseFrom(pts, tl)
}

// pick returns the index of the point with the smallest (or largest) key.
func pick(pts [4]Point, key func(Point) float64, largest bool) int {
	best := 0
	for i := 1; i < len(pts); i++ {
		ki, kb := key(pts[i]), key(pts[best])
		switch {
		case largest && ki > kb, !largest && ki < kb:
			best = i
		case ki == kb && before(pts[i], pts[best]):
			best = i
		}
	}
	return best
}

// before is the tie-break order: smaller y first, then smaller x.
func before(a, b Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func distinct(idx ...int) bool {
	var seen [4]bool
	for _, i := range idx {
		if seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// clockwiseFrom orders the points by angle around their centroid. With Y
// pointing down, increasing atan2 is clockwise on screen.
func clockwiseFrom(pts [4]Point, start int) Quad {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X / 4
		cy += p.Y / 4
	}

	order := []int{0, 1, 2, 3}
	angle := func(i int) float64 { return math.Atan2(pts[i].Y-cy, pts[i].X-cx) }
	sort.SliceStable(order, func(a, b int) bool {
		aa, ab := angle(order[a]), angle(order[b])
		if aa != ab {
			return aa < ab
		}
		return before(pts[order[a]], pts[order[b]])
	})

	offset := 0
	for i, idx := range order {
		if pts[idx] == pts[start] {
			offset = i
			break
		}
	}

	var q Quad
	for i := range q {
		q[i] = pts[order[(offset+i)%4]]
	}
	return q
}

// Polygon is a closed sequence of vertices; the last vertex connects back to
// the first.
type Polygon []Point

// Area returns the enclosed area using the shoelace formula. The sign of the
// winding is discarded.
func (pg Polygon) Area() float64 {
	return math.Abs(pg.SignedArea())
}

// SignedArea is positive for clockwise-on-screen winding (Y down).
func (pg Polygon) SignedArea() float64 {
	n := len(pg)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += pg[i].X*pg[j].Y - pg[j].X*pg[i].Y
	}
	return s / 2
}

// Perimeter returns the closed arc length.
func (pg Polygon) Perimeter() float64 {
	n := len(pg)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		length += Distance(pg[i], pg[(i+1)%n])
	}
	return length
}

// Scale returns a copy with every vertex multiplied by f.
func (pg Polygon) Scale(f float64) Polygon {
	out := make(Polygon, len(pg))
	for i, p := range pg {
		out[i] = p.Scale(f)
	}
	return out
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
