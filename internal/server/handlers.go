package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/ironsheep/docscan-mcp/internal/binarize"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "document_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A scan that finds no document is not an error.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads the image through the cache
//  4. Runs the scanner or one of its stages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Document Scanning
	case "document_detect_outline":
		return s.handleDocumentDetectOutline(ctx, args)
	case "document_scan":
		return s.handleDocumentScan(ctx, args)

	// Pipeline Stages
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "image_binarize":
		return s.handleImageBinarize(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Document Scanning Handlers ===

// Corner is a document corner in original image pixels.
type Corner struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func cornersOf(q geometry.Quad) []Corner {
	out := make([]Corner, len(q))
	for i, p := range q {
		out[i] = Corner{X: p.X, Y: p.Y}
	}
	return out
}

// OutlineResult is returned by document_detect_outline.
type OutlineResult struct {
	Found         bool     `json:"found"`
	Corners       []Corner `json:"corners,omitempty"`
	Ratio         float64  `json:"ratio"`
	Candidates    int      `json:"candidates"`
	WorkingWidth  int      `json:"working_width"`
	WorkingHeight int      `json:"working_height"`
	Preview       string   `json:"preview_base64,omitempty"`
}

type documentDetectOutlineArgs struct {
	Path           string `json:"path"`
	IncludePreview bool   `json:"include_preview"`
}

func (s *Server) handleDocumentDetectOutline(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentDetectOutlineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	det, err := s.scanner.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	wb := det.Working.Bounds()
	result := &OutlineResult{
		Found:         det.Found,
		Ratio:         det.Ratio,
		Candidates:    len(det.Candidates),
		WorkingWidth:  wb.Dx(),
		WorkingHeight: wb.Dy(),
	}
	if det.Found {
		result.Corners = cornersOf(det.Corners())
	}

	if a.IncludePreview && det.Found {
		overlay, err := s.scanner.Overlay(det)
		if err != nil {
			return nil, err
		}
		if result.Preview, err = imaging.EncodeBase64PNG(overlay); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ScanResult is returned by document_scan.
type ScanResult struct {
	Found      bool     `json:"found"`
	Format     string   `json:"format,omitempty"`
	MimeType   string   `json:"mime_type,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Corners    []Corner `json:"corners,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
	Data       string   `json:"data_base64,omitempty"`
	Candidates int      `json:"candidates,omitempty"`
	Message    string   `json:"message,omitempty"`
}

type documentScanArgs struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleDocumentScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = s.cfg.OutputFormat
	}
	format, err := imaging.ParseOutputFormat(a.Format)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.scanner.Scan(ctx, img)
	if err != nil {
		return nil, err
	}

	switch r := res.(type) {
	case scanner.NotFound:
		return &ScanResult{
			Found:      false,
			Candidates: r.Candidates,
			Message:    "no four-cornered document outline found; try a photo with the whole page visible against a contrasting background",
		}, nil

	case scanner.Rectified:
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, r.Image, format, s.cfg.EncodeOptions()); err != nil {
			return nil, err
		}

		result := &ScanResult{
			Found:    true,
			Format:   format.String(),
			MimeType: format.MimeType(),
			Width:    r.Size.X,
			Height:   r.Size.Y,
			Corners:  cornersOf(r.Outline),
		}
		if a.OutputPath != "" {
			if err := os.WriteFile(a.OutputPath, buf.Bytes(), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write output: %w", err)
			}
			result.OutputPath = a.OutputPath
		} else {
			result.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unexpected scan result %T", res)
	}
}

// === Pipeline Stage Handlers ===

// StageImageResult carries one intermediate image.
type StageImageResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Fraction of pixels that are set: edge pixels for an edge map, black
	// pixels for a binarized page.
	Coverage float64 `json:"coverage"`

	Image string `json:"image_base64"`
}

type imageEdgeDetectArgs struct {
	Path          string  `json:"path"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = s.cfg.CannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = s.cfg.CannyHigh
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := detection.Options{
		WorkingHeight:   s.cfg.WorkingHeight,
		BlurRadius:      s.cfg.BlurRadius,
		CannyLow:        a.ThresholdLow,
		CannyHigh:       a.ThresholdHigh,
		MaxCandidates:   s.cfg.MaxCandidates,
		ApproxTolerance: s.cfg.ApproxTolerance,
	}
	det, err := detection.New(opts).Detect(img)
	if err != nil {
		return nil, err
	}

	return stageImage(det.Edges, 255)
}

type imageBinarizeArgs struct {
	Path      string   `json:"path"`
	BlockSize int      `json:"block_size"`
	Offset    *float64 `json:"offset"`
}

func (s *Server) handleImageBinarize(args json.RawMessage) (interface{}, error) {
	var a imageBinarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := binarize.Options{BlockSize: s.cfg.BlockSize, Offset: s.cfg.Offset}
	if a.BlockSize != 0 {
		opts.BlockSize = a.BlockSize
	}
	// Zero is a meaningful offset, so only an absent field takes the default.
	if a.Offset != nil {
		opts.Offset = *a.Offset
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := binarize.Binarize(img, opts)
	if err != nil {
		return nil, err
	}
	return stageImage(out, 0)
}

// stageImage encodes img and reports the fraction of its pixels equal to set.
func stageImage(img *image.Gray, set uint8) (*StageImageResult, error) {
	encoded, err := imaging.EncodeBase64PNG(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y == set {
				n++
			}
		}
	}

	return &StageImageResult{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Coverage: float64(n) / float64(b.Dx()*b.Dy()),
		Image:    encoded,
	}, nil
}
