package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Document Scanning
		{
			Name:        "document_detect_outline",
			Description: "Find the four corners of a paper document in a photo. Corners are returned in original image pixels, ordered top-left, top-right, bottom-right, bottom-left. found is false when no four-sided outline exists.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"include_preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Return a base64 PNG of the resized working image with the outline drawn on it. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_scan",
			Description: "Detect a document in a photo, warp it to a top-down view and convert it to black-and-white. The page is written to output_path when given, otherwise returned as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg", "pdf"},
						"description": "Output format. Defaults to the server's configured format (png unless changed)",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path to write the scanned page to",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pipeline Stages
		{
			Name:        "image_edge_detect",
			Description: "Run the document detector's edge stage (resize, grayscale, blur, Canny) and return the edge map as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Canny hysteresis low threshold. Default 75",
						"default":     75,
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Canny hysteresis high threshold. Default 200",
						"default":     200,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_binarize",
			Description: "Apply adaptive Gaussian thresholding to a whole image and return the black-and-white result as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd neighbourhood size in pixels, at least 3. Default 11",
						"default":     11,
					},
					"offset": map[string]interface{}{
						"type":        "number",
						"description": "Constant subtracted from the local mean. Default 10",
						"default":     10,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
