package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateGeometry reports point sets that cannot define a projective
// mapping: duplicate, collinear or nearly collinear corners.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

const (
	// collinearEpsilon bounds the area of any corner triangle relative to the
	// squared extent of the point set.
	collinearEpsilon = 1e-6

	// detEpsilon is the smallest acceptable |det(H)|.
	detEpsilon = 1e-12

	// projectiveEpsilon is the smallest usable homogeneous w.
	projectiveEpsilon = 1e-12
)

// Homography is a 3x3 projective transform stored row-major:
//
//	| h0 h1 h2 |
//	| h3 h4 h5 |
//	| h6 h7 h8 |
//
// A point (x, y) maps to ((h0 x + h1 y + h2) / w, (h3 x + h4 y + h5) / w)
// with w = h6 x + h7 y + h8.
type Homography [9]float64

// ComputeHomography solves for the transform that maps each src[i] exactly
// onto dst[i].
//
// The eight unknowns (h8 fixed at 1) come from the standard direct linear
// transform system, solved after translating and scaling both point sets
// around their centroids so that large image coordinates do not swamp the
// solve. An error wrapping ErrDegenerateGeometry is returned when either
// point set has three nearly collinear points, when the system is singular
// or ill-conditioned, or when the result is not a finite invertible matrix.
func ComputeHomography(src, dst [4]Point) (Homography, error) {
	if err := checkSpread("source", src); err != nil {
		return Homography{}, err
	}
	if err := checkSpread("destination", dst); err != nil {
		return Homography{}, err
	}

	srcNorm, srcT := normalize(src)
	dstNorm, dstT := normalize(dst)

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := srcNorm[i].X, srcNorm[i].Y
		u, v := dstNorm[i].X, dstNorm[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}

	hn := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		sol.AtVec(6), sol.AtVec(7), 1,
	})

	// H = inv(Tdst) * Hn * Tsrc
	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	var full mat.Dense
	full.Product(&dstInv, hn, srcT)

	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r*3+c] = full.At(r, c)
		}
	}
	h, ok := h.normalized()
	if !ok {
		return Homography{}, fmt.Errorf("%w: projective scale h33 vanishes", ErrDegenerateGeometry)
	}
	if !h.finite() {
		return Homography{}, fmt.Errorf("%w: non-finite coefficients", ErrDegenerateGeometry)
	}
	if math.Abs(h.Det()) < detEpsilon {
		return Homography{}, fmt.Errorf("%w: determinant %.3g below %.0e", ErrDegenerateGeometry, h.Det(), detEpsilon)
	}
	return h, nil
}

// Apply maps p through h. The boolean is false when p lands on the line at
// infinity and has no finite image.
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < projectiveEpsilon {
		return Point{}, false
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Det returns the determinant of the 3x3 matrix.
func (h Homography) Det() float64 {
	return mat.Det(h.dense())
}

// Inverse returns the transform mapping destination points back to source.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.dense()); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if n, ok := out.normalized(); ok {
		out = n
	}
	if !out.finite() {
		return Homography{}, fmt.Errorf("%w: non-finite inverse", ErrDegenerateGeometry)
	}
	return out, nil
}

func (h Homography) dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, h[:])
	return mat.NewDense(3, 3, data)
}

// normalized rescales h so that h8 == 1.
func (h Homography) normalized() (Homography, bool) {
	if math.Abs(h[8]) < projectiveEpsilon {
		return h, false
	}
	s := h[8]
	for i := range h {
		h[i] /= s
	}
	return h, true
}

func (h Homography) finite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// checkSpread rejects point sets with any three points (nearly) collinear.
// The threshold is relative to the squared extent so that it behaves the
// same for thumbnails and for full-resolution photos.
func checkSpread(name string, pts [4]Point) error {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: %s point %v is not finite", ErrDegenerateGeometry, name, p)
		}
	}

	var extent float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if d := Distance(pts[i], pts[j]); d > extent {
				extent = d
			}
		}
	}
	if extent == 0 {
		return fmt.Errorf("%w: %s points coincide", ErrDegenerateGeometry, name)
	}

	limit := collinearEpsilon * extent * extent
	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, t := range triples {
		if math.Abs(cross(pts[t[0]], pts[t[1]], pts[t[2]])) <= limit {
			return fmt.Errorf("%w: %s points %d, %d and %d are collinear",
				ErrDegenerateGeometry, name, t[0], t[1], t[2])
		}
	}
	return nil
}

// normalize translates the points to their centroid and scales them so the
// mean distance from the origin is sqrt(2). It returns the moved points and
// the 3x3 matrix that performs the move.
func normalize(pts [4]Point) ([4]Point, *mat.Dense) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X / 4
		cy += p.Y / 4
	}
	var mean float64
	for _, p := range pts {
		mean += math.Hypot(p.X-cx, p.Y-cy) / 4
	}
	s := math.Sqrt2 / mean

	var out [4]Point
	for i, p := range pts {
		out[i] = Point{X: (p.X - cx) * s, Y: (p.Y - cy) * s}
	}
	return out, mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	})
}
