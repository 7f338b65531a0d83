package detection

import (
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// approxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm: every dropped point lies within epsilon of the simplified
// outline.
//
// The contour is first split into two chains at a pair of mutually distant
// points (the point farthest from the first point, then the point farthest
// from that one), which for a convex outline are two opposite extremes. Both
// split points are always kept as vertices.
func approxPolygon(contour geometry.Polygon, epsilon float64) geometry.Polygon {
	n := len(contour)
	if n < 3 {
		return append(geometry.Polygon(nil), contour...)
	}

	a := farthestFrom(contour, contour[0])
	b := farthestFrom(contour, contour[a])
	if a == b {
		return geometry.Polygon{contour[a]}
	}
	if b < a {
		a, b = b, a
	}

	chain1 := contour[a : b+1]
	chain2 := make(geometry.Polygon, 0, n-b+a+1)
	chain2 = append(chain2, contour[b:]...)
	chain2 = append(chain2, contour[:a+1]...)

	out := simplifyChain(chain1, epsilon)
	out = out[:len(out)-1]
	tail := simplifyChain(chain2, epsilon)
	out = append(out, tail[:len(tail)-1]...)
	return out
}

// simplifyChain runs Douglas-Peucker on an open chain and returns the kept
// points, always including both end points.
func simplifyChain(chain geometry.Polygon, epsilon float64) geometry.Polygon {
	keep := make([]bool, len(chain))
	keep[0], keep[len(chain)-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, len(chain) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}

		idx, dmax := -1, -1.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(chain[i], chain[s.lo], chain[s.hi]); d > dmax {
				idx, dmax = i, d
			}
		}
		if dmax > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make(geometry.Polygon, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// segmentDistance is the distance from p to the line through a and b, or to
// a itself when the two coincide.
func segmentDistance(p, a, b geometry.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return geometry.Distance(p, a)
	}
	return math.Abs(dy*(p.X-a.X)-dx*(p.Y-a.Y)) / length
}

func farthestFrom(pts geometry.Polygon, from geometry.Point) int {
	best, dmax := 0, -1.0
	for i, p := range pts {
		if d := geometry.Distance(p, from); d > dmax {
			best, dmax = i, d
		}
	}
	return best
}
