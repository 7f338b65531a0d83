// Package config holds the runtime settings for the scanning pipeline and
// the tool server.
//
// Settings come from three layers, later layers winning:
//
//  1. Default()
//  2. an optional JSON file (named by DOCSCAN_CONFIG in the server binary)
//  3. DOCSCAN_* environment variables
//
// Validate clamps out-of-range numbers back to their defaults. Settings that
// cannot be clamped (an unknown output format, log level, page size or
// colour) are reported as errors.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// EnvConfigPath names the environment variable holding the JSON config path.
const EnvConfigPath = "DOCSCAN_CONFIG"

// Config holds every tunable of the pipeline.
type Config struct {
	// Detection
	WorkingHeight   int     `json:"working_height"`
	BlurRadius      float64 `json:"blur_radius"`
	CannyLow        float64 `json:"canny_low"`
	CannyHigh       float64 `json:"canny_high"`
	MaxCandidates   int     `json:"max_candidates"`
	ApproxTolerance float64 `json:"approx_tolerance"`

	// Binarization
	BlockSize int     `json:"block_size"`
	Offset    float64 `json:"offset"`

	// Output
	JPEGQuality  int    `json:"jpeg_quality"`
	PDFPageSize  string `json:"pdf_page_size"`
	OutputFormat string `json:"output_format"`

	// Debugging
	OutlineColor string `json:"outline_color"`
	KeepStages   bool   `json:"keep_stages"`
	LogLevel     string `json:"log_level"`
}

// Default returns a Config populated with standard defaults.
func Default() Config {
	return Config{
		WorkingHeight:   500,
		BlurRadius:      2,
		CannyLow:        75,
		CannyHigh:       200,
		MaxCandidates:   5,
		ApproxTolerance: 0.02,
		BlockSize:       11,
		Offset:          10,
		JPEGQuality:     95,
		PDFPageSize:     "A4",
		OutputFormat:    "png",
		OutlineColor:    imaging.DefaultOutlineColor,
		KeepStages:      false,
		LogLevel:        "info",
	}
}

// Load reads configuration from the JSON file at path on top of Default().
// A missing file (or an empty path) yields the defaults. The result is
// validated before it is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DOCSCAN_* variables found through lookup
// (normally os.LookupEnv). Values that do not parse are reported and leave
// the field unchanged.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not an integer", key, v))
			return
		}
		*dst = n
	}
	float := func(key string, dst *float64) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a number", key, v))
			return
		}
		*dst = f
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a boolean", key, v))
			return
		}
		*dst = b
	}

	integer("DOCSCAN_WORKING_HEIGHT", &c.WorkingHeight)
	float("DOCSCAN_BLUR_RADIUS", &c.BlurRadius)
	float("DOCSCAN_CANNY_LOW", &c.CannyLow)
	float("DOCSCAN_CANNY_HIGH", &c.CannyHigh)
	integer("DOCSCAN_MAX_CANDIDATES", &c.MaxCandidates)
	float("DOCSCAN_APPROX_TOLERANCE", &c.ApproxTolerance)
	integer("DOCSCAN_BLOCK_SIZE", &c.BlockSize)
	float("DOCSCAN_OFFSET", &c.Offset)
	integer("DOCSCAN_JPEG_QUALITY", &c.JPEGQuality)
	str("DOCSCAN_PDF_PAGE_SIZE", &c.PDFPageSize)
	str("DOCSCAN_OUTPUT_FORMAT", &c.OutputFormat)
	str("DOCSCAN_OUTLINE_COLOR", &c.OutlineColor)
	boolean("DOCSCAN_KEEP_STAGES", &c.KeepStages)
	str("DOCSCAN_LOG_LEVEL", &c.LogLevel)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate clamps numeric settings to safe ranges and checks the named ones.
func (c *Config) Validate() error {
	d := Default()

	if c.WorkingHeight < 1 {
		c.WorkingHeight = d.WorkingHeight
	}
	if c.BlurRadius < 0 || !finite(c.BlurRadius) {
		c.BlurRadius = d.BlurRadius
	}
	if c.CannyLow < 0 || !finite(c.CannyLow) {
		c.CannyLow = d.CannyLow
	}
	if c.CannyHigh < c.CannyLow || !finite(c.CannyHigh) {
		c.CannyHigh = math.Max(d.CannyHigh, c.CannyLow)
	}
	if c.MaxCandidates < 1 {
		c.MaxCandidates = d.MaxCandidates
	}
	if c.ApproxTolerance <= 0 || c.ApproxTolerance >= 1 || !finite(c.ApproxTolerance) {
		c.ApproxTolerance = d.ApproxTolerance
	}
	if c.BlockSize < 3 {
		c.BlockSize = d.BlockSize
	}
	if c.BlockSize%2 == 0 {
		c.BlockSize++
	}
	if !finite(c.Offset) {
		c.Offset = d.Offset
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.PDFPageSize == "" {
		c.PDFPageSize = d.PDFPageSize
	}
	if c.OutputFormat == "" {
		c.OutputFormat = d.OutputFormat
	}
	if c.OutlineColor == "" {
		c.OutlineColor = d.OutlineColor
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	if _, err := imaging.ParseOutputFormat(c.OutputFormat); err != nil {
		return err
	}
	if !imaging.ValidPageSize(c.PDFPageSize) {
		return fmt.Errorf("unknown PDF page size %q", c.PDFPageSize)
	}
	if _, err := imaging.ParseColor(c.OutlineColor); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Format returns the parsed default output format.
func (c Config) Format() (imaging.OutputFormat, error) {
	return imaging.ParseOutputFormat(c.OutputFormat)
}

// Level returns LogLevel as a slog level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return lvl, nil
}

// EncodeOptions returns the encoder settings carried by c.
func (c Config) EncodeOptions() imaging.EncodeOptions {
	return imaging.EncodeOptions{
		JPEGQuality: c.JPEGQuality,
		PDFPageSize: c.PDFPageSize,
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
