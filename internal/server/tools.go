package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// channelNames lists the accepted channel names in tool schemas.
var channelNames = []string{"value", "red", "green", "blue", "alpha", "luminance", "rgb"}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional region. (x1,y1) inclusive top-left, (x2,y2) exclusive bottom-right",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

func channelProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        channelNames,
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, component count, bit depth and histogram bin count.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Histogram Lifecycle
		{
			Name:        "histogram_compute",
			Description: "Compute the histogram of an image, optionally restricted to a region and weighted by a mask image. Any calculation still running for the same image is cancelled first. Returns statistics for every available channel, or just the running state when async is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"region": regionProperty(),
					"mask_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional mask image. Its gray level times its alpha weights each pixel; it is scaled to the region size",
					},
					"async": map[string]interface{}{
						"type":        "boolean",
						"description": "Return immediately and compute in the background. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "histogram_status",
			Description: "Report the state of the latest histogram calculation for an image and, once finished, its statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Block until the running calculation ends. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "histogram_cancel",
			Description: "Cancel the running histogram calculation for an image. The previously computed histogram is kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "histogram_clear",
			Description: "Discard the histogram of an image and drop the image from the cache.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Queries
		{
			Name:        "histogram_channel_stats",
			Description: "Get count, mean, median, standard deviation, Otsu threshold and maximum of one channel over a bin range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"channel": channelProperty("Channel to query"),
					"start": map[string]interface{}{
						"type":        "integer",
						"description": "First bin (inclusive). Default 0",
					},
					"end": map[string]interface{}{
						"type":        "integer",
						"description": "Last bin (inclusive). Default the last bin",
					},
				},
				"required": []string{"path", "channel"},
			},
		},
		{
			Name:        "histogram_values",
			Description: "Get the raw bin values of one channel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"channel": channelProperty("Channel to read"),
				},
				"required": []string{"path", "channel"},
			},
		},
		{
			Name:        "histogram_threshold_image",
			Description: "Binarise an image or region with the Otsu threshold of a channel and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"channel": channelProperty("Channel to threshold (rgb is rejected). Default value"),
					"region":  regionProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList responds with every tool definition
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
