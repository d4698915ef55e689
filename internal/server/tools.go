package server

import "github.com/ironsheep/image-framer-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source Image
		{
			Name:        "frame_load",
			Description: "Load the source image to frame, from a file path or base64 data. Replacing the image discards every crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"data_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded image bytes, used instead of path. The whole request line is limited to 64 MiB",
					},
				},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file, or the id returned by frame_load",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_presets",
			Description: "List the output presets with their size, aspect ratio and current crop.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Cropping
		{
			Name:        "frame_set_crop",
			Description: "Set the crop rectangle for a preset, either explicitly or by anchoring the largest crop of the preset's aspect ratio. Returns the framed size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset name, e.g. square",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge of the crop in source pixels",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge of the crop in source pixels",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Crop width in source pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Crop height in source pixels",
					},
					"anchor": map[string]interface{}{
						"type":        "string",
						"enum":        imaging.Anchors,
						"description": "Place the largest crop of the preset's aspect ratio here instead of giving x/y/width/height",
					},
				},
				"required": []string{"preset"},
			},
		},
		{
			Name:        "frame_preview",
			Description: "Show the source image with a preset's crop outlined and rule-of-thirds guides, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset whose crop to outline",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex. Default #FF0000",
						"default":     imaging.DefaultOverlayColor,
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Fit the preview within this many pixels on the longest side. Default 1024",
						"default":     1024,
					},
				},
				"required": []string{"preset"},
			},
		},

		// Border
		{
			Name:        "frame_set_border",
			Description: "Set the border thickness and color. Every preset with a crop is recomposited; crop positions are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Border thickness in pixels on each side (0 or more)",
						"minimum":     0,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Border color as #RRGGBB or #RGB",
					},
				},
				"required": []string{"thickness", "color"},
			},
		},
		{
			Name:        "frame_suggest_border",
			Description: "Suggest border colors from a preset's crop: its dominant colors, a complement, and neutrals.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset whose crop to analyze. Omit to use the whole image",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of dominant colors. Default 3",
						"default":     3,
					},
				},
			},
		},
		{
			Name:        "frame_sample_color",
			Description: "Get the exact color at a pixel of the source image, for picking a border color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"x", "y"},
			},
		},

		// Output
		{
			Name:        "frame_composite",
			Description: "Return a preset's framed image (crop plus border) as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset name",
					},
				},
				"required": []string{"preset"},
			},
		},
		{
			Name:        "frame_export",
			Description: "Encode a preset's framed image and write it to the output directory as {preset}-image.png or .jpg.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset name",
					},
					"format":  formatProperty(),
					"quality": qualityProperty(),
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write into. Defaults to the configured output directory",
					},
					"include_data": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the encoded bytes as base64",
						"default":     false,
					},
				},
				"required": []string{"preset"},
			},
		},
		{
			Name:        "frame_export_all",
			Description: "Export every preset that has a crop, one after another.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"format":  formatProperty(),
					"quality": qualityProperty(),
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write into. Defaults to the configured output directory",
					},
				},
			},
		},
		{
			Name:        "frame_share",
			Description: "Upload a preset's framed image and return a link to it. Fails with \"sharing is not supported\" when no share storage is configured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Preset name",
					},
					"format":  formatProperty(),
					"quality": qualityProperty(),
				},
				"required": []string{"preset"},
			},
		},
	}
}

func formatProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg"},
		"description": "Output format. Defaults to the configured format",
	}
}

func qualityProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"low", "high"},
		"description": "JPEG quality: low (0.3) or high (1.0). Ignored for PNG",
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
