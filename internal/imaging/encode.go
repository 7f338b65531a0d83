package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// OutputFormat selects the encoding of a scanned page.
type OutputFormat int

const (
	FormatPNG OutputFormat = iota
	FormatJPEG
	FormatPDF
)

// ParseOutputFormat maps a user supplied name ("png", "jpeg", "jpg", "pdf",
// case-insensitive) to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return 0, fmt.Errorf("unknown output format %q (want png, jpeg or pdf)", s)
}

func (f OutputFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatPDF:
		return "pdf"
	}
	return fmt.Sprintf("OutputFormat(%d)", int(f))
}

// MimeType returns the media type of encoded output.
func (f OutputFormat) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Ext returns the conventional file extension, including the dot.
func (f OutputFormat) Ext() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatPDF:
		return ".pdf"
	}
	return ""
}

// EncodeOptions tunes the lossy and paged encoders.
type EncodeOptions struct {
	// JPEGQuality ranges over 1..100.
	JPEGQuality int

	// PDFPageSize is a paper size name such as "A4" or "Letter".
	PDFPageSize string
}

// DefaultEncodeOptions returns quality 95 JPEG and A4 pages.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{JPEGQuality: 95, PDFPageSize: "A4"}
}

// ValidPageSize reports whether name is a paper size the PDF encoder knows.
func ValidPageSize(name string) bool {
	_, ok := types.PaperSize[name]
	return ok
}

// EncodeError reports a codec failure while writing output.
type EncodeError struct {
	Format OutputFormat
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encode writes img to w in the requested format. Any failure is returned
// as an *EncodeError.
//
// PDF output is a single page of PDFPageSize with the image centred and
// scaled to fit.
func Encode(w io.Writer, img image.Image, format OutputFormat, opts EncodeOptions) error {
	if img == nil {
		return &EncodeError{Format: format, Err: ErrNoImage}
	}

	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		quality := opts.JPEGQuality
		if quality < 1 || quality > 100 {
			quality = DefaultEncodeOptions().JPEGQuality
		}
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPDF:
		err = encodePDF(w, img, opts.PDFPageSize)
	default:
		err = fmt.Errorf("unsupported output format")
	}

	if err != nil {
		return &EncodeError{Format: format, Err: err}
	}
	return nil
}

var disablePDFConfigDir sync.Once

func encodePDF(w io.Writer, img image.Image, pageSize string) error {
	// pdfcpu would otherwise create a per-user config directory on first use.
	disablePDFConfigDir.Do(api.DisableConfigDir)

	if pageSize == "" {
		pageSize = DefaultEncodeOptions().PDFPageSize
	}
	dim, ok := types.PaperSize[pageSize]
	if !ok {
		return fmt.Errorf("unknown page size %q", pageSize)
	}

	var page bytes.Buffer
	if err := imaging.Encode(&page, img, imaging.PNG); err != nil {
		return err
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageSize = pageSize
	imp.PageDim = dim
	imp.UserDim = true

	return api.ImportImages(nil, w, []io.Reader{&page}, imp, nil)
}

// EncodeBase64PNG encodes img as PNG and returns it base64 encoded, the
// form in which previews travel over the tool protocol.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG, EncodeOptions{}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
