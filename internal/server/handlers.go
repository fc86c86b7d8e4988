package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/samber/lo"

	"github.com/ironsheep/palette-tools-mcp/internal/imaging"
	"github.com/ironsheep/palette-tools-mcp/internal/palette"
	"github.com/ironsheep/palette-tools-mcp/internal/store"
)

// Defaults for optional tool arguments.
const (
	defaultPaletteColors  = 16
	defaultDominantColors = 5
	defaultExactLimit     = 256
	defaultMaxDimension   = 512
	defaultHistoryLimit   = 10
	maxPaletteColors      = 256
)

// errNoHistory is returned by palette_history when no store is configured.
var errNoHistory = errors.New("palette history is not enabled (start the server with --db)")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_quantize").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Info("tool failed", "tool", params.Name, "error", err)
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Color Sampling
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(args)

	// Palettes
	case "image_exact_palette":
		return s.handleImageExactPalette(args)
	case "image_quantize_palette":
		return s.handleImageQuantizePalette(ctx, args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)
	case "image_quantize":
		return s.handleImageQuantize(args)
	case "palette_swatch":
		return s.handlePaletteSwatch(args)
	case "palette_history":
		return s.handlePaletteHistory(ctx, args)

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

// decodeArgs unmarshals tool arguments. A missing path is rejected here so
// every image tool reports it the same way.
func decodeArgs(args json.RawMessage, v interface{ imagePath() string }) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if v.imagePath() == "" {
		return errors.New("path is required")
	}
	return nil
}

type pathArg struct {
	Path string `json:"path"`
}

func (a *pathArg) imagePath() string { return a.Path }

// === Image Information Handlers ===

type imageLoadArgs struct {
	pathArg
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageCropArgs struct {
	pathArg
	imaging.Region
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	cropped, err := imaging.Crop(img, a.Region)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(cropped)
}

// === Color Sampling Handlers ===

type imageSampleColorArgs struct {
	pathArg
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	pathArg
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColorsMulti(img, a.Points)
}

// === Palette Handlers ===

// PaletteResult is the response of the palette tools.
type PaletteResult struct {
	// Colors are the palette entries, in palette order unless the tool says
	// otherwise.
	Colors []palette.Entry `json:"colors"`

	// RequestedColors is the palette size limit that was asked for.
	RequestedColors int `json:"requested_colors"`

	// Exact is true when the image had no more distinct colors than
	// requested, so every color is represented unchanged.
	Exact bool `json:"exact"`

	// TotalPixels is the number of pixels counted, after downsampling.
	TotalPixels int `json:"total_pixels"`

	// HistoryID identifies the saved palette when history is enabled.
	HistoryID int64 `json:"history_id,omitempty"`
}

type imageExactPaletteArgs struct {
	pathArg
	MaxColors int `json:"max_colors"`
}

// ExactPaletteResult reports the exact palette or that the image has too
// many colors for one.
type ExactPaletteResult struct {
	Exact     bool            `json:"exact"`
	MaxColors int             `json:"max_colors"`
	Colors    []palette.Entry `json:"colors,omitempty"`
	Message   string          `json:"message,omitempty"`
}

func (s *Server) handleImageExactPalette(args json.RawMessage) (interface{}, error) {
	var a imageExactPaletteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxColors == 0 {
		a.MaxColors = defaultExactLimit
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	p, ok, err := palette.ExactPalette(img, a.MaxColors)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ExactPaletteResult{
			MaxColors: a.MaxColors,
			Message:   fmt.Sprintf("image has more than %d distinct colors", a.MaxColors),
		}, nil
	}
	return &ExactPaletteResult{Exact: true, MaxColors: a.MaxColors, Colors: p.Entries()}, nil
}

// quantizeArgs are shared by every tool that runs the median-cut quantizer.
type quantizeArgs struct {
	pathArg
	MaxColors    int             `json:"max_colors"`
	IgnoreAlpha  bool            `json:"ignore_alpha"`
	Aggregation  string          `json:"aggregation"`
	Region       *imaging.Region `json:"region,omitempty"`
	MaxDimension *int            `json:"max_dimension,omitempty"`
}

// quantizer validates the arguments and returns the configured Quantizer.
func (a *quantizeArgs) quantizer(s *Server, defaultColors int) (*palette.Quantizer, error) {
	if a.MaxColors == 0 {
		a.MaxColors = defaultColors
	}
	if a.MaxColors < 1 || a.MaxColors > maxPaletteColors {
		return nil, fmt.Errorf("max_colors must be between 1 and %d, got %d", maxPaletteColors, a.MaxColors)
	}
	agg, err := palette.ParseAggregation(a.Aggregation)
	if err != nil {
		return nil, err
	}
	maxDim := defaultMaxDimension
	if a.MaxDimension != nil {
		if *a.MaxDimension < 0 {
			return nil, fmt.Errorf("max_dimension must not be negative, got %d", *a.MaxDimension)
		}
		maxDim = *a.MaxDimension
	}

	return &palette.Quantizer{
		MaxColors:   a.MaxColors,
		IgnoreAlpha: a.IgnoreAlpha,
		Aggregation: agg,
		Histogram: imaging.HistogramOptions{
			Region:       a.Region,
			MaxDimension: maxDim,
		},
		Logger: s.logger,
	}, nil
}

func (s *Server) runQuantizer(a *quantizeArgs, defaultColors int) (*palette.Palette, *palette.Quantizer, image.Image, error) {
	q, err := a.quantizer(s, defaultColors)
	if err != nil {
		return nil, nil, nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := q.Process(img)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, q, img, nil
}

func (s *Server) handleImageQuantizePalette(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a quantizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, q, _, err := s.runQuantizer(&a, defaultPaletteColors)
	if err != nil {
		return nil, err
	}

	result := &PaletteResult{
		Colors:          p.Entries(),
		RequestedColors: q.MaxColors,
		Exact:           !p.HasTree(),
		TotalPixels:     p.TotalPixels(),
	}

	if s.history != nil {
		id, err := s.history.Save(ctx, newHistoryRecord(a.Path, q, p, result.Colors))
		if err != nil {
			// The palette is still useful without its history entry.
			s.logger.Warn("failed to record palette", "path", a.Path, "error", err)
		} else {
			result.HistoryID = id
		}
	}
	return result, nil
}

func newHistoryRecord(path string, q *palette.Quantizer, p *palette.Palette, entries []palette.Entry) store.Record {
	colors := lo.Map(entries, func(e palette.Entry, _ int) store.Color {
		return store.Color{Hex: e.Hex, Alpha: e.RGBA.A, Population: e.Population}
	})
	return store.Record{
		SourcePath:  path,
		MaxColors:   q.MaxColors,
		IgnoreAlpha: q.IgnoreAlpha,
		Aggregation: q.Aggregation.String(),
		TotalPixels: p.TotalPixels(),
		Colors:      colors,
	}
}

type imageDominantColorsArgs struct {
	quantizeArgs
	Count int `json:"count"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count != 0 {
		a.MaxColors = a.Count
	}
	p, q, _, err := s.runQuantizer(&a.quantizeArgs, defaultDominantColors)
	if err != nil {
		return nil, err
	}
	return &PaletteResult{
		Colors:          p.Dominant(),
		RequestedColors: q.MaxColors,
		Exact:           !p.HasTree(),
		TotalPixels:     p.TotalPixels(),
	}, nil
}

type imageQuantizeArgs struct {
	quantizeArgs
	Dither bool `json:"dither"`
}

// QuantizeResult is an image remapped onto a palette.
type QuantizeResult struct {
	*imaging.EncodedImage
	Colors   []palette.Entry `json:"colors"`
	Dithered bool            `json:"dithered"`
}

func (s *Server) handleImageQuantize(args json.RawMessage) (interface{}, error) {
	var a imageQuantizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, _, img, err := s.runQuantizer(&a.quantizeArgs, defaultPaletteColors)
	if err != nil {
		return nil, err
	}

	src := img
	if a.Region != nil {
		if src, err = imaging.Crop(img, *a.Region); err != nil {
			return nil, err
		}
	}

	var out *image.Paletted
	if a.Dither {
		out, err = palette.Dither(src, p)
	} else {
		out, err = palette.Remap(src, p)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return &QuantizeResult{EncodedImage: encoded, Colors: p.Entries(), Dithered: a.Dither}, nil
}

type paletteSwatchArgs struct {
	quantizeArgs
	CellSize   int    `json:"cell_size"`
	Columns    int    `json:"columns"`
	Background string `json:"background"`
	Labels     *bool  `json:"labels,omitempty"`
}

// SwatchResult is a rendered palette sheet.
type SwatchResult struct {
	*imaging.EncodedImage
	Colors []palette.Entry `json:"colors"`
}

func (s *Server) handlePaletteSwatch(args json.RawMessage) (interface{}, error) {
	var a paletteSwatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, _, _, err := s.runQuantizer(&a.quantizeArgs, defaultPaletteColors)
	if err != nil {
		return nil, err
	}

	sheet, err := imaging.RenderSwatches(p.Swatches(), imaging.SwatchOptions{
		CellSize:   a.CellSize,
		Columns:    a.Columns,
		Background: a.Background,
		ShowLabels: a.Labels == nil || *a.Labels,
	})
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(sheet)
	if err != nil {
		return nil, err
	}
	return &SwatchResult{EncodedImage: encoded, Colors: p.Entries()}, nil
}

type paletteHistoryArgs struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

// PaletteHistoryResult lists saved palettes, newest first.
type PaletteHistoryResult struct {
	Palettes []store.Record `json:"palettes"`
}

func (s *Server) handlePaletteHistory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, errNoHistory
	}

	var a paletteHistoryArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if a.Limit <= 0 {
		a.Limit = defaultHistoryLimit
	}

	var (
		recs []store.Record
		err  error
	)
	if a.Path != "" {
		recs, err = s.history.ForPath(ctx, a.Path, a.Limit)
	} else {
		recs, err = s.history.Recent(ctx, a.Limit)
	}
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return &PaletteHistoryResult{Palettes: recs}, nil
}
