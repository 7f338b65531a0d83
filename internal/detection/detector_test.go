package detection

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

func TestDetect_UniformImageNotFound(t *testing.T) {
	for _, c := range []color.Color{color.Black, color.White, color.RGBA{120, 80, 40, 255}} {
		img := createTestImage(400, 300, c)

		det, err := New(DefaultOptions()).Detect(img)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if det.Found {
			t.Errorf("colour %v: expected no outline, got %v", c, det.Outline)
		}
		if det.Outline != (geometry.Quad{}) {
			t.Errorf("colour %v: outline should be zero when not found", c)
		}
		if len(det.Candidates) != 0 {
			t.Errorf("colour %v: got %d candidates, want 0", c, len(det.Candidates))
		}
	}
}

func TestDetect_RotatedRectangle(t *testing.T) {
	for _, deg := range []float64{0, 15, 45, 90} {
		t.Run(angleName(deg), func(t *testing.T) {
			img, truth := createRotatedRectangleImage(400, 300, 200, 120, deg)

			det, err := New(DefaultOptions()).Detect(img)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if !det.Found {
				t.Fatalf("outline not found; candidates: %+v", det.Candidates)
			}

			corners := det.Corners()
			if corners.Polygon().SignedArea() <= 0 {
				t.Errorf("corners %v are not ordered clockwise", corners)
			}
			for _, want := range truth {
				if d := nearest(corners, want); d > 4 {
					t.Errorf("corner %v: nearest detected corner is %.1f px away (%v)", want, d, corners)
				}
			}
		})
	}
}

func TestDetect_WorkingImageAndRatio(t *testing.T) {
	img, _ := createRotatedRectangleImage(800, 1000, 400, 500, 0)

	det, err := New(DefaultOptions()).Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if det.Ratio != 2 {
		t.Errorf("ratio: got %v, want 2", det.Ratio)
	}
	if det.Working.Bounds() != image.Rect(0, 0, 400, 500) {
		t.Errorf("working bounds: got %v, want 400x500", det.Working.Bounds())
	}
	if det.Edges.Bounds() != det.Working.Bounds() {
		t.Errorf("edge bounds %v differ from working bounds %v", det.Edges.Bounds(), det.Working.Bounds())
	}
}

func TestDetect_TriangleNotFound(t *testing.T) {
	img := createTestImage(400, 300, color.Black)
	a, b, c := geometry.Point{X: 200, Y: 40}, geometry.Point{X: 340, Y: 260}, geometry.Point{X: 60, Y: 260}
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			p := geometry.Point{X: float64(x), Y: float64(y)}
			if sameSide(p, a, b, c) && sameSide(p, b, c, a) && sameSide(p, c, a, b) {
				img.Set(x, y, color.White)
			}
		}
	}

	det, err := New(DefaultOptions()).Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if det.Found {
		t.Errorf("triangle should not be accepted as a document, got %v", det.Outline)
	}
	if len(det.Candidates) == 0 {
		t.Error("the triangle should still be reported as a candidate")
	}
}

func TestDetect_ZeroLowThresholdDoesNotTakeFrame(t *testing.T) {
	img := createTestImage(400, 300, color.Gray{128})
	fillRect(img, 195, 145, 205, 155)

	opts := DefaultOptions()
	opts.CannyLow = 0
	det, err := New(opts).Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	// At most the blob itself may be reported, never the image border.
	frame := float64(det.Working.Bounds().Dx() * det.Working.Bounds().Dy())
	if det.Found && det.Outline.Polygon().Area() > frame/10 {
		t.Errorf("outline %v covers most of the frame", det.Outline)
	}
	for _, c := range det.Candidates {
		if c.Area > frame/10 {
			t.Errorf("candidate area %.0f is close to the frame area %.0f", c.Area, frame)
		}
	}
}

func TestDetect_CandidatesLargestFirst(t *testing.T) {
	img := createTestImage(600, 400, color.Black)
	fillRect(img, 40, 40, 140, 140)  // 100 x 100
	fillRect(img, 200, 60, 560, 360) // 360 x 300
	fillRect(img, 60, 250, 160, 300) // 100 x 50

	opts := DefaultOptions()
	opts.MaxCandidates = 2
	det, err := New(opts).Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(det.Candidates) != 2 {
		t.Fatalf("candidates: got %d, want 2", len(det.Candidates))
	}
	if det.Candidates[0].Area < det.Candidates[1].Area {
		t.Errorf("candidates not sorted by area: %v, %v", det.Candidates[0].Area, det.Candidates[1].Area)
	}
	if !det.Found {
		t.Fatal("outline not found")
	}
	corners := det.Corners()
	if corners[geometry.TopLeft].X < 190 || corners[geometry.BottomRight].X < 540 {
		t.Errorf("expected the largest rectangle to win, got %v", corners)
	}
}

func TestDetect_Errors(t *testing.T) {
	if _, err := New(DefaultOptions()).Detect(nil); !errors.Is(err, imaging.ErrNoImage) {
		t.Errorf("nil image: got %v, want ErrNoImage", err)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := New(DefaultOptions()).Detect(empty); !errors.Is(err, imaging.ErrNoImage) {
		t.Errorf("empty image: got %v, want ErrNoImage", err)
	}

	bad := []func(*Options){
		func(o *Options) { o.WorkingHeight = 0 },
		func(o *Options) { o.BlurRadius = -1 },
		func(o *Options) { o.CannyLow = 300 },
		func(o *Options) { o.MaxCandidates = 0 },
		func(o *Options) { o.ApproxTolerance = 0 },
	}
	img := createTestImage(20, 20, color.White)
	for i, mutate := range bad {
		opts := DefaultOptions()
		mutate(&opts)
		if _, err := New(opts).Detect(img); err == nil {
			t.Errorf("case %d: expected options error", i)
		}
	}
}

// Helper functions

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createRotatedRectangleImage draws a white rw x rh rectangle rotated by deg
// around the canvas centre on black, and returns its corner positions.
func createRotatedRectangleImage(width, height int, rw, rh, deg float64) (*image.RGBA, [4]geometry.Point) {
	img := createTestImage(width, height, color.Black)
	cx, cy := float64(width)/2, float64(height)/2
	sin, cos := math.Sincos(deg * math.Pi / 180)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) <= rw/2 && math.Abs(v) <= rh/2 {
				img.Set(x, y, color.White)
			}
		}
	}

	var corners [4]geometry.Point
	for i, c := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		u, v := c[0]*rw/2, c[1]*rh/2
		corners[i] = geometry.Point{X: cx + u*cos - v*sin, Y: cy + u*sin + v*cos}
	}
	return img, corners
}

func fillRect(img *image.RGBA, x1, y1, x2, y2 int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.Set(x, y, color.White)
		}
	}
}

func nearest(q geometry.Quad, p geometry.Point) float64 {
	best := math.Inf(1)
	for _, c := range q {
		best = math.Min(best, geometry.Distance(c, p))
	}
	return best
}

func sameSide(p, a, b, ref geometry.Point) bool {
	side := func(q geometry.Point) float64 {
		return (b.X-a.X)*(q.Y-a.Y) - (b.Y-a.Y)*(q.X-a.X)
	}
	return side(p)*side(ref) >= 0
}

func angleName(deg float64) string {
	return map[float64]string{0: "0deg", 15: "15deg", 45: "45deg", 90: "90deg"}[deg]
}
