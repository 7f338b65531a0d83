package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// DefaultOutlineColor is the colour used for outline previews when none is
// configured.
const DefaultOutlineColor = "#00FF00"

// ParseColor parses a "#RRGGBB" hex colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawOutline returns a copy of img with the closed polygon through the
// quad's corners drawn on top in the given hex colour.
//
// Lines are thickness pixels wide. Pixels inside the drawn stroke are blended
// in CIE L*a*b* space with alpha opacity (0..1), so the preview stays readable
// over both dark and light paper.
func DrawOutline(img image.Image, q geometry.Quad, hex string, thickness int, alpha float64) (*image.RGBA, error) {
	stroke, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	if thickness < 1 {
		thickness = 1
	}
	alpha = math.Max(0, math.Min(1, alpha))

	out := clone.AsRGBA(img)
	b := out.Bounds()
	painted := make(map[image.Point]bool)

	plot := func(x, y int) {
		half := thickness / 2
		for dy := -half; dy < thickness-half; dy++ {
			for dx := -half; dx < thickness-half; dx++ {
				p := image.Pt(b.Min.X+x+dx, b.Min.Y+y+dy)
				if !p.In(b) || painted[p] {
					continue
				}
				painted[p] = true
				under, _ := colorful.MakeColor(out.RGBAAt(p.X, p.Y))
				r, g, bl := under.BlendLab(stroke, alpha).Clamped().RGB255()
				out.SetRGBA(p.X, p.Y, color.RGBA{R: r, G: g, B: bl, A: 255})
			}
		}
	}

	for i := range q {
		a, c := q[i], q[(i+1)%len(q)]
		drawLine(int(math.Round(a.X)), int(math.Round(a.Y)), int(math.Round(c.X)), int(math.Round(c.Y)), plot)
	}

	return out, nil
}

// drawLine walks the pixels of the segment (x0,y0)-(x1,y1) with Bresenham's
// algorithm.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
