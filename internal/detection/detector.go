package detection

import (
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Options controls outline detection.
type Options struct {
	// WorkingHeight is the height in pixels of the resized copy that edges
	// are detected on. Default: 500.
	WorkingHeight int `json:"working_height"`

	// BlurRadius is the Gaussian radius applied before edge detection.
	// Default: 2 (a 5-tap kernel).
	BlurRadius float64 `json:"blur_radius"`

	// CannyLow and CannyHigh are the hysteresis thresholds.
	// Defaults: 75 and 200.
	CannyLow  float64 `json:"canny_low"`
	CannyHigh float64 `json:"canny_high"`

	// MaxCandidates is how many of the largest contours are tried.
	// Default: 5.
	MaxCandidates int `json:"max_candidates"`

	// ApproxTolerance is the polygon simplification tolerance as a fraction
	// of each contour's perimeter. Default: 0.02.
	ApproxTolerance float64 `json:"approx_tolerance"`
}

// DefaultOptions returns the standard detection settings.
func DefaultOptions() Options {
	return Options{
		WorkingHeight:   500,
		BlurRadius:      2,
		CannyLow:        75,
		CannyHigh:       200,
		MaxCandidates:   5,
		ApproxTolerance: 0.02,
	}
}

// Validate reports the first setting that would make detection meaningless.
func (o Options) Validate() error {
	switch {
	case o.WorkingHeight < 1:
		return fmt.Errorf("working height must be positive, got %d", o.WorkingHeight)
	case o.BlurRadius < 0:
		return fmt.Errorf("blur radius must not be negative, got %v", o.BlurRadius)
	case o.CannyLow < 0 || o.CannyHigh < o.CannyLow:
		return fmt.Errorf("canny thresholds must satisfy 0 <= low <= high, got %v/%v", o.CannyLow, o.CannyHigh)
	case o.MaxCandidates < 1:
		return fmt.Errorf("max candidates must be positive, got %d", o.MaxCandidates)
	case o.ApproxTolerance <= 0:
		return fmt.Errorf("approximation tolerance must be positive, got %v", o.ApproxTolerance)
	}
	return nil
}

// Candidate is one of the largest contours considered as a document outline.
type Candidate struct {
	// Vertices is the simplified polygon, in working-image coordinates.
	Vertices []geometry.Point `json:"vertices"`

	// Area is the shoelace area enclosed by the traced contour.
	Area float64 `json:"area"`

	// Perimeter is the closed arc length of the traced contour.
	Perimeter float64 `json:"perimeter"`
}

// Detection is the outcome of running the detector on one image.
type Detection struct {
	// Found reports whether a four-sided outline was located.
	Found bool

	// Outline holds the corners in working-image coordinates, ordered
	// top-left, top-right, bottom-right, bottom-left. Zero when !Found.
	Outline geometry.Quad

	// Ratio is original height / working height. Multiplying a working
	// coordinate by Ratio maps it onto the original image.
	Ratio float64

	// Working is the resized colour image edges were detected on.
	Working *image.NRGBA

	// Edges is the binary edge map of Working.
	Edges *image.Gray

	// Candidates lists the contours that were tried, largest first.
	Candidates []Candidate
}

// Corners returns Outline mapped onto the original image.
func (d *Detection) Corners() geometry.Quad {
	return d.Outline.Scale(d.Ratio)
}

// Detector locates the four-cornered outline of a document in a photo.
//
// A Detector holds only configuration and is safe for concurrent use.
type Detector struct {
	Options Options
}

// New returns a Detector using opts.
func New(opts Options) *Detector {
	return &Detector{Options: opts}
}

// Detect searches img for a document outline.
//
// # Algorithm
//
//  1. Resize to Options.WorkingHeight rows, preserving aspect ratio
//  2. Convert to grayscale and apply a Gaussian blur
//  3. Canny edge detection
//  4. Trace the outer border of every connected edge component
//  5. Keep the MaxCandidates contours with the largest enclosed area
//  6. Simplify each (largest first) with Douglas-Peucker at
//     ApproxTolerance x perimeter; the first with exactly four vertices wins
//
// Not finding an outline is reported through Detection.Found, not as an
// error. Errors are returned only for a nil or empty image and invalid
// options.
func (d *Detector) Detect(img image.Image) (*Detection, error) {
	if img == nil {
		return nil, imaging.ErrNoImage
	}
	if err := d.Options.Validate(); err != nil {
		return nil, err
	}

	working, ratio, err := imaging.ResizeToHeight(img, d.Options.WorkingHeight)
	if err != nil {
		return nil, err
	}

	gray := imaging.Blur(imaging.ToGray(working), d.Options.BlurRadius)
	edges := imaging.Canny(gray, d.Options.CannyLow, d.Options.CannyHigh)

	result := &Detection{
		Ratio:   ratio,
		Working: working,
		Edges:   edges,
	}

	contours := largestContours(findContours(edges), d.Options.MaxCandidates)
	result.Candidates = make([]Candidate, 0, len(contours))

	for _, c := range contours {
		perimeter := c.Perimeter()
		approx := approxPolygon(c, d.Options.ApproxTolerance*perimeter)
		result.Candidates = append(result.Candidates, Candidate{
			Vertices:  approx,
			Area:      c.Area(),
			Perimeter: perimeter,
		})

		if len(approx) == 4 && !result.Found {
			result.Found = true
			result.Outline = geometry.OrderPoints([4]geometry.Point{approx[0], approx[1], approx[2], approx[3]})
		}
	}

	return result, nil
}

// largestContours returns up to k contours ordered by enclosed area, largest
// first. Contours of equal area keep their discovery order.
func largestContours(contours []geometry.Polygon, k int) []geometry.Polygon {
	areas := make([]float64, len(contours))
	for i, c := range contours {
		areas[i] = c.Area()
	}

	idx := make([]int, len(contours))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return areas[idx[a]] > areas[idx[b]]
	})

	if len(idx) > k {
		idx = idx[:k]
	}
	out := make([]geometry.Polygon, len(idx))
	for i, j := range idx {
		out[i] = contours[j]
	}
	return out
}
