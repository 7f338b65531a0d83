// Package scanner chains outline detection, perspective rectification and
// adaptive binarization into a single document scan.
//
// A Scanner is built once from a config.Config and may be shared between
// goroutines; every call works on its own copies of the image data.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/binarize"
	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

const (
	overlayThickness = 2
	overlayAlpha     = 0.85
)

// Scanner runs the scanning pipeline with fixed settings.
type Scanner struct {
	detector     *detection.Detector
	threshold    binarize.Options
	encode       imaging.EncodeOptions
	outlineColor string
	keepStages   bool
	logger       *slog.Logger
}

// New returns a Scanner configured from cfg. A nil logger discards output.
func New(cfg config.Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{
		detector: detection.New(detection.Options{
			WorkingHeight:   cfg.WorkingHeight,
			BlurRadius:      cfg.BlurRadius,
			CannyLow:        cfg.CannyLow,
			CannyHigh:       cfg.CannyHigh,
			MaxCandidates:   cfg.MaxCandidates,
			ApproxTolerance: cfg.ApproxTolerance,
		}),
		threshold: binarize.Options{
			BlockSize: cfg.BlockSize,
			Offset:    cfg.Offset,
		},
		encode:       cfg.EncodeOptions(),
		outlineColor: cfg.OutlineColor,
		keepStages:   cfg.KeepStages,
		logger:       logger,
	}
}

// Scan looks for a document in img and, when one is found, returns its
// rectified and binarized page.
//
// A missing outline yields a NotFound result and a nil error. ctx is checked
// between stages; a cancelled scan returns ctx.Err().
func (s *Scanner) Scan(ctx context.Context, img image.Image) (Result, error) {
	if img == nil {
		return nil, fmt.Errorf("scan: %w", imaging.ErrNoImage)
	}

	det, err := s.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	var stages *Stages
	if s.keepStages {
		stages, err = s.stages(det)
		if err != nil {
			return nil, err
		}
	}

	if !det.Found {
		s.logger.Info("no document outline found",
			"candidates", len(det.Candidates),
			"width", img.Bounds().Dx(),
			"height", img.Bounds().Dy())
		return NotFound{Candidates: len(det.Candidates), Stages: stages}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	warped, err := rectify.Rectify(img, det.Outline, det.Ratio)
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}
	s.logger.Debug("stage complete", "stage", "rectify",
		"elapsed", time.Since(start),
		"size", warped.Bounds().Size())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := s.Threshold(warped)
	if err != nil {
		return nil, err
	}

	return Rectified{
		Image:   page,
		Outline: det.Corners(),
		Size:    page.Bounds().Size(),
		Stages:  stages,
	}, nil
}

// Detect runs outline detection only.
func (s *Scanner) Detect(ctx context.Context, img image.Image) (*detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	det, err := s.detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	s.logger.Debug("stage complete", "stage", "detect",
		"elapsed", time.Since(start),
		"ratio", det.Ratio,
		"candidates", len(det.Candidates),
		"found", det.Found,
		"outline_area", det.Outline.Polygon().Area())

	return det, nil
}

// Threshold binarizes a whole image with the scanner's threshold settings.
func (s *Scanner) Threshold(img image.Image) (*image.Gray, error) {
	start := time.Now()
	out, err := binarize.Binarize(img, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}
	s.logger.Debug("stage complete", "stage", "binarize", "elapsed", time.Since(start))
	return out, nil
}

// Overlay draws det's outline on its working image. It returns nil when no
// outline was found.
func (s *Scanner) Overlay(det *detection.Detection) (*image.RGBA, error) {
	if !det.Found {
		return nil, nil
	}
	return imaging.DrawOutline(det.Working, det.Outline, s.outlineColor, overlayThickness, overlayAlpha)
}

func (s *Scanner) stages(det *detection.Detection) (*Stages, error) {
	overlay, err := s.Overlay(det)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	return &Stages{
		Working: det.Working,
		Edges:   det.Edges,
		Overlay: overlay,
	}, nil
}

// Document is an encoded scan.
type Document struct {
	// Found is false when no outline was detected; the other fields are
	// then zero.
	Found bool

	// Data holds the encoded page.
	Data []byte

	MimeType string
	Ext      string
	Width    int
	Height   int

	// Outline holds the page corners in the input image.
	Outline geometry.Quad
}

// ScanBytes decodes data, scans it and encodes the page as format.
//
// Undecodable input is reported as *imaging.DecodeError and encoder failures
// as *imaging.EncodeError. A missing outline yields a Document with Found
// false and a nil error.
func (s *Scanner) ScanBytes(ctx context.Context, data []byte, format imaging.OutputFormat) (*Document, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	res, err := s.Scan(ctx, img)
	if err != nil {
		return nil, err
	}

	switch r := res.(type) {
	case NotFound:
		return &Document{}, nil
	case Rectified:
		start := time.Now()
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, r.Image, format, s.encode); err != nil {
			return nil, err
		}
		s.logger.Debug("stage complete", "stage", "encode",
			"elapsed", time.Since(start),
			"format", format.String(),
			"bytes", buf.Len())

		return &Document{
			Found:    true,
			Data:     buf.Bytes(),
			MimeType: format.MimeType(),
			Ext:      format.Ext(),
			Width:    r.Size.X,
			Height:   r.Size.Y,
			Outline:  r.Outline,
		}, nil
	default:
		return nil, fmt.Errorf("unexpected scan result %T", res)
	}
}
