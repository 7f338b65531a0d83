// Package server implements the MCP (Model Context Protocol) server for
// document scanning.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Document Scanning:
//   - document_detect_outline: Find the page corners
//   - document_scan: Rectify and binarize the page, as PNG, JPEG or PDF
//
// Pipeline Stages:
//   - image_edge_detect: The detector's Canny edge map
//   - image_binarize: Adaptive threshold of a whole image
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the process, so
// repeated calls on one photo decode it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string as data. A photo without a recognisable
// page is not an error: document_detect_outline and document_scan answer
// with found set to false.
package server
