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

func datasetProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to a reference dataset (rows of label,h1..h7). Defaults to the server's configured dataset",
	}
}

// maskProperties are the optional preprocessing arguments shared by the
// shape tools.
func maskProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Gray level (0-255) separating ink from background. Default 128",
			"default":     128,
			"minimum":     0,
			"maximum":     255,
		},
		"polarity": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"dark", "light", "auto"},
			"description": "Which side of the threshold is ink: dark strokes on light paper, light strokes on dark paper, or auto-detect from the border. Default dark",
			"default":     "dark",
		},
		"close_radius": map[string]interface{}{
			"type":        "integer",
			"description": "Radius of the closing applied to bridge gaps in strokes; 0 disables. Default 1 (3x3)",
			"default":     1,
			"minimum":     0,
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional region to classify instead of the whole image; x2/y2 are exclusive",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	classifyProps := maskProperties()
	classifyProps["dataset_path"] = datasetProperty()

	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and alpha information.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "shape_mask",
			Description: "Isolate the largest drawn shape and return it as a filled binary mask (base64 PNG) with contour statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": maskProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "shape_features",
			Description: "Compute the seven Hu moment invariants of the largest drawn shape, raw, log-transformed and normalized.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": maskProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "shape_classify",
			Description: "Classify a hand-drawn shape by nearest-neighbor matching of its Hu moments against a labeled reference dataset. Returns the label, its distance and the distance to every reference entry.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": classifyProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "dataset_inspect",
			Description: "Parse a reference dataset and list its usable entries and the rows that were skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_path": datasetProperty(),
				},
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
