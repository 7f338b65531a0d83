package geometry

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b Point
		want float64
	}{
		{Point{0, 0}, Point{3, 4}, 5},
		{Point{1, 1}, Point{1, 1}, 0},
		{Point{-2, 0}, Point{2, 0}, 4},
		{Point{0.5, 0.5}, Point{1.5, 1.5}, math.Sqrt2},
	}

	for _, tt := range tests {
		got := Distance(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Distance(%v, %v): got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOrderPoints_Rectangle(t *testing.T) {
	want := Quad{{10, 20}, {110, 20}, {110, 80}, {10, 80}}
	got := OrderPoints([4]Point{want[2], want[0], want[3], want[1]})
	if got != want {
		t.Errorf("OrderPoints: got %v, want %v", got, want)
	}
}

func TestOrderPoints_PermutationInvariant(t *testing.T) {
	shapes := map[string][4]Point{
		"axis aligned":   {{0, 0}, {200, 0}, {200, 100}, {0, 100}},
		"skewed":         {{12, 30}, {190, 8}, {230, 160}, {5, 140}},
		"rotated 30":     rotateAll([4]Point{{0, 0}, {200, 0}, {200, 100}, {0, 100}}, Point{100, 50}, 30),
		"diamond 45":     {{50, 0}, {100, 50}, {50, 100}, {0, 50}},
		"inverted photo": rotateAll([4]Point{{0, 0}, {300, 0}, {300, 400}, {0, 400}}, Point{150, 200}, 180),
	}

	for name, pts := range shapes {
		t.Run(name, func(t *testing.T) {
			ref := OrderPoints(pts)
			for _, perm := range permutations() {
				var in [4]Point
				for i, j := range perm {
					in[i] = pts[j]
				}
				if got := OrderPoints(in); got != ref {
					t.Fatalf("permutation %v: got %v, want %v", perm, got, ref)
				}
			}
		})
	}
}

func TestOrderPoints_RotationInvariant(t *testing.T) {
	center := Point{100, 100}
	square := [4]Point{{50, 50}, {150, 50}, {150, 150}, {50, 150}}
	ref := OrderPoints(square)

	for _, deg := range []float64{90, 180, 270} {
		rotated := rotateAll(square, center, deg)
		got := OrderPoints(rotated)
		for i := range got {
			if Distance(got[i], ref[i]) > 1e-9 {
				t.Errorf("rotation %v: corner %d got %v, want %v", deg, i, got[i], ref[i])
			}
		}
	}
}

func TestOrderPoints_RotatedRectangleIsClockwise(t *testing.T) {
	rect := [4]Point{{0, 0}, {240, 0}, {240, 120}, {0, 120}}
	center := Point{120, 60}

	for _, deg := range []float64{0, 10, 15, 44, 45, 46, 90, 135, 180, 225, 270, 315, 359} {
		rotated := rotateAll(rect, center, deg)
		got := OrderPoints(rotated)

		if !sameSet(got, rotated) {
			t.Fatalf("rotation %v: output %v is not a permutation of %v", deg, got, rotated)
		}
		if got.Polygon().SignedArea() <= 0 {
			t.Errorf("rotation %v: %v is not clockwise on screen", deg, got)
		}
		for _, p := range got {
			if p.X+p.Y < got[TopLeft].X+got[TopLeft].Y-1e-9 {
				t.Errorf("rotation %v: top-left %v does not have the minimal sum", deg, got[TopLeft])
			}
		}
	}
}

func TestPolygon_AreaAndPerimeter(t *testing.T) {
	pg := Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	if got := pg.Area(); got != 12 {
		t.Errorf("Area: got %v, want 12", got)
	}
	if got := pg.Perimeter(); got != 14 {
		t.Errorf("Perimeter: got %v, want 14", got)
	}

	reversed := Polygon{{0, 3}, {4, 3}, {4, 0}, {0, 0}}
	if reversed.SignedArea() >= 0 {
		t.Error("counter-clockwise polygon should have negative signed area")
	}
	if reversed.Area() != 12 {
		t.Errorf("Area should ignore winding, got %v", reversed.Area())
	}

	if got := (Polygon{{1, 1}, {2, 2}}).Area(); got != 0 {
		t.Errorf("two-point polygon area: got %v, want 0", got)
	}
}

func TestQuad_Scale(t *testing.T) {
	q := Quad{{1, 2}, {3, 2}, {3, 4}, {1, 4}}
	got := q.Scale(2.5)
	want := Quad{{2.5, 5}, {7.5, 5}, {7.5, 10}, {2.5, 10}}
	if got != want {
		t.Errorf("Scale: got %v, want %v", got, want)
	}
}

func TestPolygon_Scale(t *testing.T) {
	pg := Polygon{{0, 0}, {4, 0}, {4, 3}}
	got := pg.Scale(2)
	if got.Area() != 4*pg.Area() {
		t.Errorf("scaled area: got %v, want %v", got.Area(), 4*pg.Area())
	}
	if pg[1] != (Point{4, 0}) {
		t.Error("Scale modified its receiver")
	}
}

// Helper functions

func rotateAll(pts [4]Point, c Point, deg float64) [4]Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	var out [4]Point
	for i, p := range pts {
		dx, dy := p.X-c.X, p.Y-c.Y
		out[i] = Point{
			X: c.X + dx*cos - dy*sin,
			Y: c.Y + dx*sin + dy*cos,
		}
	}
	return out
}

func permutations() [][4]int {
	var out [][4]int
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			for c := 0; c < 4; c++ {
				for d := 0; d < 4; d++ {
					if a != b && a != c && a != d && b != c && b != d && c != d {
						out = append(out, [4]int{a, b, c, d})
					}
				}
			}
		}
	}
	return out
}

func sameSet(q Quad, pts [4]Point) bool {
	used := [4]bool{}
	for _, p := range q {
		found := false
		for i, r := range pts {
			if !used[i] && p == r {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
