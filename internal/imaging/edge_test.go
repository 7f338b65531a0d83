package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCanny_Dimensions(t *testing.T) {
	gray := ToGray(createEdgeTestImage(100, 80))

	edges := Canny(gray, 75, 200)
	if edges.Bounds() != image.Rect(0, 0, 100, 80) {
		t.Errorf("bounds: got %v, want (0,0)-(100,80)", edges.Bounds())
	}
}

func TestCanny_BinaryOutput(t *testing.T) {
	gray := Blur(ToGray(createEdgeTestImage(60, 60)), 2)
	edges := Canny(gray, 75, 200)

	for i, v := range edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d: got %d, want 0 or 255", i, v)
		}
	}
}

func TestCanny_UniformImage(t *testing.T) {
	gray := ToGray(createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255}))

	edges := Canny(gray, 75, 200)
	if n := countEdgePixels(edges); n != 0 {
		t.Errorf("uniform image should have no edges, got %d edge pixels", n)
	}
}

func TestCanny_StrongEdge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			img.SetGray(x, y, color.Gray{255})
		}
	}

	edges := Canny(Blur(img, 2), 75, 200)

	for y := 5; y < 95; y++ {
		count := 0
		for x := 0; x < 100; x++ {
			if edges.GrayAt(x, y).Y == 255 {
				count++
				if x < 48 || x > 52 {
					t.Fatalf("row %d: edge at x=%d, want near 50", y, x)
				}
			}
		}
		if count != 1 {
			t.Fatalf("row %d: got %d edge pixels, want exactly 1", y, count)
		}
	}
}

func TestCanny_ClosedRectangle(t *testing.T) {
	gray := Blur(ToGray(createEdgeTestImage(100, 100)), 2)
	edges := Canny(gray, 75, 200)

	// Every side of the dark square must be present.
	probes := []image.Point{{50, 25}, {50, 74}, {25, 50}, {74, 50}}
	for _, p := range probes {
		found := false
		for d := -2; d <= 2 && !found; d++ {
			if p.X == 50 {
				found = edges.GrayAt(p.X, p.Y+d).Y == 255
			} else {
				found = edges.GrayAt(p.X+d, p.Y).Y == 255
			}
		}
		if !found {
			t.Errorf("no edge found near %v", p)
		}
	}
}

func TestCanny_HysteresisDropsIsolatedWeakEdges(t *testing.T) {
	// A faint step only produces weak responses and no strong seed.
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			v := uint8(100)
			if x >= 20 {
				v = 130
			}
			img.SetGray(x, y, color.Gray{v})
		}
	}

	if n := countEdgePixels(Canny(img, 75, 200)); n != 0 {
		t.Errorf("weak-only edge should be dropped, got %d edge pixels", n)
	}
	if n := countEdgePixels(Canny(img, 75, 100)); n == 0 {
		t.Error("edge should survive once it exceeds the high threshold")
	}
}

func TestCanny_ZeroLowThresholdStaysOnEdges(t *testing.T) {
	// Flat grey with one small bright blob; a zero low threshold must not
	// let hysteresis spread across the flat background.
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	blob := image.Rect(45, 45, 55, 55)
	for y := blob.Min.Y; y < blob.Max.Y; y++ {
		for x := blob.Min.X; x < blob.Max.X; x++ {
			img.SetGray(x, y, color.Gray{255})
		}
	}

	edges := Canny(img, 0, 200)
	if countEdgePixels(edges) == 0 {
		t.Fatal("expected edges around the blob")
	}
	near := blob.Inset(-2)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if edges.GrayAt(x, y).Y == 255 && !image.Pt(x, y).In(near) {
				t.Fatalf("edge at (%d,%d) is away from the blob", x, y)
			}
		}
	}
}

func TestCanny_SmallImage(t *testing.T) {
	for _, sz := range []image.Point{{1, 1}, {2, 5}, {5, 2}, {3, 3}} {
		gray := image.NewGray(image.Rect(0, 0, sz.X, sz.Y))
		edges := Canny(gray, 75, 200)
		if edges.Bounds().Dx() != sz.X || edges.Bounds().Dy() != sz.Y {
			t.Errorf("size %v: got %v", sz, edges.Bounds())
		}
	}
}

func TestCanny_SubImage(t *testing.T) {
	full := ToGray(createEdgeTestImage(100, 100))
	sub := full.SubImage(image.Rect(10, 10, 90, 90)).(*image.Gray)

	edges := Canny(sub, 75, 200)
	if edges.Bounds() != image.Rect(0, 0, 80, 80) {
		t.Fatalf("bounds: got %v, want (0,0)-(80,80)", edges.Bounds())
	}
	if countEdgePixels(edges) == 0 {
		t.Error("expected edges in sub-image")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.lo, tt.hi)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}

// Helper functions

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// White background
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	// Black rectangle in center (creates 4 edges)
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}

	return img
}

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func countEdgePixels(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v == 255 {
			n++
		}
	}
	return n
}
