package server

import "github.com/ironsheep/palette-tools-mcp/internal/imaging"

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

func regionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// quantizeProperties are the arguments shared by the median-cut tools.
func quantizeProperties(defaultColors int) map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"max_colors": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of palette colors (1-256)",
			"minimum":     1,
			"maximum":     maxPaletteColors,
			"default":     defaultColors,
		},
		"ignore_alpha": map[string]interface{}{
			"type":        "boolean",
			"description": "Treat every pixel as fully opaque",
			"default":     false,
		},
		"aggregation": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"mean", "mode"},
			"description": "How each color box becomes one palette color: population-weighted mean or most common color",
			"default":     "mean",
		},
		"region": regionProperty("Optional region to analyze instead of the whole image"),
		"max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Downsample so neither side exceeds this before counting colors. 0 disables downsampling",
			"default":     defaultMaxDimension,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	dominant := quantizeProperties(defaultDominantColors)
	dominant["count"] = map[string]interface{}{
		"type":        "integer",
		"description": "Number of colors to return (alias of max_colors)",
		"default":     defaultDominantColors,
	}

	swatch := quantizeProperties(defaultPaletteColors)
	swatch["cell_size"] = map[string]interface{}{
		"type":        "integer",
		"description": "Side of each color square in pixels (8-512)",
		"default":     imaging.DefaultSwatchCell,
	}
	swatch["columns"] = map[string]interface{}{
		"type":        "integer",
		"description": "Swatches per row",
		"default":     imaging.DefaultSwatchColumns,
	}
	swatch["background"] = map[string]interface{}{
		"type":        "string",
		"description": "Sheet background as #RRGGBB or #RRGGBBAA",
		"default":     "#FFFFFF",
	}
	swatch["labels"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Write each color's hex value under its swatch",
		"default":     true,
	}

	quantizeImage := quantizeProperties(defaultPaletteColors)
	quantizeImage["dither"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Apply Floyd-Steinberg error diffusion instead of plain remapping",
		"default":     false,
	}

	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, whether it has transparency, and its number of distinct colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1":   map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
					"y1":   map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
					"x2":   map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
					"y2":   map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Color Sampling
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Get color values at multiple pixel coordinates in a single call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample, each with an optional label",
					},
				},
				"required": []string{"path", "points"},
			},
		},

		// Palettes
		{
			Name:        "image_exact_palette",
			Description: "List every distinct color of an image (alpha ignored) if there are at most max_colors of them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_colors": map[string]interface{}{
						"type":        "integer",
						"description": "Largest palette to return",
						"default":     defaultExactLimit,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_quantize_palette",
			Description: "Reduce an image to a palette of at most max_colors colors with median cut. Each color reports how many pixels it represents. Images with fewer distinct colors return them unchanged.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": quantizeProperties(defaultPaletteColors),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Find the most common colors of an image or region, ordered by pixel share.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": dominant,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_quantize",
			Description: "Remap an image (or region) onto its median-cut palette and return the result as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": quantizeImage,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "palette_swatch",
			Description: "Render the median-cut palette of an image as a sheet of labeled color squares, returned as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": swatch,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "palette_history",
			Description: "List palettes previously generated by image_quantize_palette, newest first. Requires the server to run with a history database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Only palettes generated from this image",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of palettes to return",
						"default":     defaultHistoryLimit,
					},
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
