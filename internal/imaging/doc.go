// Package imaging provides the raster building blocks of the document scanner.
//
// It covers decoding and encoding, the preprocessing that precedes outline
// detection, and the preview overlays returned to tool clients:
//
//   - Decode / ImageCache: raw bytes or files to image.Image (JPEG, PNG, GIF,
//     BMP, TIFF), with EXIF orientation applied.
//   - ResizeToHeight, ToGray, Blur, Canny: the working-copy pipeline used to
//     find a document outline.
//   - DrawOutline: a preview of a detected outline.
//   - Encode: PNG, JPEG or single-page PDF output selected by OutputFormat.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Every function returns a
// newly allocated image anchored at (0,0) and never mutates its input.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless;
// callers must not mutate an image while it is being processed.
//
// # Error Handling
//
// Decoding failures are returned as *DecodeError and encoding failures as
// *EncodeError, both of which unwrap to the underlying codec error. Empty
// input is reported as ErrNoImage.
package imaging
