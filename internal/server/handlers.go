package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/export"
	"github.com/ironsheep/image-framer-mcp/internal/imaging"
	"github.com/ironsheep/image-framer-mcp/internal/preset"
	"github.com/ironsheep/image-framer-mcp/internal/session"
	"github.com/ironsheep/image-framer-mcp/internal/share"
)

const (
	defaultPreviewSize  = 1024
	defaultSuggestCount = 3
	uploadKeyPrefix     = "upload:"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "frame_export").
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
// Calls that have no image or crop to act on are not errors; they return
// {"skipped": true, "reason": "..."}.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
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
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Source Image
	case "frame_load":
		return s.handleFrameLoad(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(ctx, args)
	case "frame_presets":
		return s.handleFramePresets(args)

	// Cropping
	case "frame_set_crop":
		return s.handleFrameSetCrop(ctx, args)
	case "frame_preview":
		return s.handleFramePreview(ctx, args)

	// Border
	case "frame_set_border":
		return s.handleFrameSetBorder(ctx, args)
	case "frame_suggest_border":
		return s.handleFrameSuggestBorder(ctx, args)
	case "frame_sample_color":
		return s.handleFrameSampleColor(ctx, args)

	// Output
	case "frame_composite":
		return s.handleFrameComposite(ctx, args)
	case "frame_export":
		return s.handleFrameExport(ctx, args)
	case "frame_export_all":
		return s.handleFrameExportAll(ctx, args)
	case "frame_share":
		return s.handleFrameShare(ctx, args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// SkippedResult is returned when a tool had no image or crop to act on.
type SkippedResult struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}

// skipOr turns a missing image or crop into a SkippedResult and passes any
// other error through.
func (s *Server) skipOr(err error) (interface{}, error) {
	if !session.IsSkip(err) {
		return nil, err
	}
	s.metrics.ObserveSkipped(session.SkipReason(err))
	s.logger.Debug("nothing to do", zap.Error(err))
	return &SkippedResult{Skipped: true, Reason: err.Error()}, nil
}

func (s *Server) outputSettings(format, quality string) (compose.Format, compose.Quality, error) {
	f, q := s.format, s.quality
	if format != "" {
		parsed, err := compose.ParseFormat(format)
		if err != nil {
			return "", "", err
		}
		f = parsed
	}
	if quality != "" {
		parsed, err := compose.ParseQuality(quality)
		if err != nil {
			return "", "", err
		}
		q = parsed
	}
	return f, q, nil
}

// === Source Image Handlers ===

type frameLoadArgs struct {
	Path       string `json:"path"`
	DataBase64 string `json:"data_base64"`
}

// FrameLoadResult describes the newly loaded source.
type FrameLoadResult struct {
	ID      string   `json:"id"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Format  string   `json:"format"`
	Presets []string `json:"presets"`
}

func (s *Server) handleFrameLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	switch {
	case a.DataBase64 != "":
		data, err := base64.StdEncoding.DecodeString(a.DataBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
		src, err := imaging.DecodeBytes(data)
		if err != nil {
			return nil, err
		}
		img, err := src.Wait(ctx)
		if err != nil {
			return nil, err
		}
		s.session.SetSource(src)

		id := uploadKeyPrefix + uuid.NewString()
		if !s.cache.Put(id, img) {
			s.logger.Warn("upload not cached", zap.String("id", id))
		}
		s.logger.Info("loaded upload", zap.String("id", id), zap.Int("bytes", len(data)))
		return &FrameLoadResult{
			ID:      id,
			Width:   img.Bounds().Dx(),
			Height:  img.Bounds().Dy(),
			Format:  src.Format(),
			Presets: s.session.Presets().Names(),
		}, nil

	case a.Path != "":
		img, err := s.cache.Load(ctx, a.Path)
		if err != nil {
			return nil, err
		}
		info, err := imaging.NewImageInfo(img, a.Path)
		if err != nil {
			return nil, err
		}
		s.session.SetSource(imaging.Ready(img))
		s.logger.Info("loaded image", zap.String("path", a.Path))
		return &FrameLoadResult{
			ID:      a.Path,
			Width:   info.Width,
			Height:  info.Height,
			Format:  info.Format,
			Presets: s.session.Presets().Names(),
		}, nil
	}

	return nil, errors.New("path or data_base64 is required")
}

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(ctx, s.cache, a.Path)
}

// PresetStatus is one row of frame_presets.
type PresetStatus struct {
	preset.Preset
	Aspect float64           `json:"aspect"`
	Crop   *imaging.CropRect `json:"crop,omitempty"`
}

// PresetsResult lists presets and the current framing state.
type PresetsResult struct {
	ImageLoaded bool           `json:"image_loaded"`
	Border      string         `json:"border"`
	Presets     []PresetStatus `json:"presets"`
}

func (s *Server) handleFramePresets(args json.RawMessage) (interface{}, error) {
	_, err := s.session.Source()
	result := &PresetsResult{
		ImageLoaded: err == nil,
		Border:      s.session.Border().String(),
	}
	for _, p := range s.session.Presets().All() {
		st := PresetStatus{Preset: p, Aspect: p.Aspect()}
		if r, err := s.session.Crop(p.Name); err == nil {
			st.Crop = &r
		}
		result.Presets = append(result.Presets, st)
	}
	return result, nil
}

// === Cropping Handlers ===

type frameSetCropArgs struct {
	Preset string `json:"preset"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Anchor string `json:"anchor"`
}

// FrameResult describes a preset's framed output.
type FrameResult struct {
	Preset string           `json:"preset"`
	Crop   imaging.CropRect `json:"crop"`
	Border string           `json:"border"`
	Width  int              `json:"width"`
	Height int              `json:"height"`
}

func (s *Server) handleFrameSetCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameSetCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var (
		r   imaging.CropRect
		err error
	)
	if a.Anchor != "" || (a.Width == 0 && a.Height == 0) {
		r, _, err = s.session.SetCropAnchored(ctx, a.Preset, a.Anchor)
	} else {
		r = imaging.CropRect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
		_, err = s.session.SetCrop(ctx, a.Preset, r)
	}
	if err != nil {
		return s.skipOr(err)
	}
	return s.frameResult(ctx, a.Preset, r)
}

func (s *Server) frameResult(ctx context.Context, name string, r imaging.CropRect) (*FrameResult, error) {
	img, err := s.session.Composite(ctx, name)
	if err != nil {
		return nil, err
	}
	return &FrameResult{
		Preset: name,
		Crop:   r,
		Border: s.session.Border().String(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

type framePreviewArgs struct {
	Preset  string `json:"preset"`
	Color   string `json:"color"`
	MaxSize int    `json:"max_size"`
}

func (s *Server) handleFramePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a framePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	if a.MaxSize == 0 {
		a.MaxSize = defaultPreviewSize
	}

	r, err := s.session.Crop(a.Preset)
	if err != nil {
		return s.skipOr(err)
	}
	img, err := s.session.Image(ctx)
	if err != nil {
		return nil, err
	}
	return imaging.CropOverlay(img, r, a.Color, a.MaxSize)
}

// === Border Handlers ===

type frameSetBorderArgs struct {
	Thickness int    `json:"thickness"`
	Color     string `json:"color"`
}

// BorderResult reports the new border and which presets were redrawn.
type BorderResult struct {
	Thickness    int      `json:"thickness"`
	Color        string   `json:"color"`
	Recomposited []string `json:"recomposited"`
}

func (s *Server) handleFrameSetBorder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameSetBorderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	b, err := compose.NewBorder(a.Thickness, a.Color)
	if err != nil {
		return nil, err
	}
	names, err := s.session.SetBorder(ctx, b)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return &BorderResult{Thickness: b.Thickness, Color: b.Hex(), Recomposited: names}, nil
}

type frameSuggestBorderArgs struct {
	Preset string `json:"preset"`
	Count  int    `json:"count"`
}

// SuggestBorderResult lists candidate border colors.
type SuggestBorderResult struct {
	Preset      string                     `json:"preset,omitempty"`
	Region      imaging.CropRect           `json:"region"`
	Current     string                     `json:"current"`
	Suggestions []imaging.BorderSuggestion `json:"suggestions"`
}

func (s *Server) handleFrameSuggestBorder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameSuggestBorderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = defaultSuggestCount
	}

	img, err := s.session.Image(ctx)
	if err != nil {
		return s.skipOr(err)
	}
	r := imaging.CropRect{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if a.Preset != "" {
		r, err = s.session.Crop(a.Preset)
		if err != nil {
			return s.skipOr(err)
		}
	}

	suggestions, err := imaging.SuggestBorders(img, r, a.Count)
	if err != nil {
		return nil, err
	}
	return &SuggestBorderResult{
		Preset:      a.Preset,
		Region:      r,
		Current:     s.session.Border().Hex(),
		Suggestions: suggestions,
	}, nil
}

type frameSampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleFrameSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.session.Image(ctx)
	if err != nil {
		return s.skipOr(err)
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Output Handlers ===

type framePresetArgs struct {
	Preset string `json:"preset"`
}

// CompositeResult carries a framed image inline.
type CompositeResult struct {
	FrameResult
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleFrameComposite(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a framePresetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.session.Composite(ctx, a.Preset)
	if err != nil {
		return s.skipOr(err)
	}
	r, err := s.session.Crop(a.Preset)
	if err != nil {
		return s.skipOr(err)
	}
	data, err := compose.EncodeBytes(img, compose.PNG, compose.QualityHigh)
	if err != nil {
		return nil, err
	}

	return &CompositeResult{
		FrameResult: FrameResult{
			Preset: a.Preset,
			Crop:   r,
			Border: s.session.Border().String(),
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
		},
		MimeType:    compose.PNG.MimeType(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

type frameExportArgs struct {
	Preset      string `json:"preset"`
	Format      string `json:"format"`
	Quality     string `json:"quality"`
	OutputDir   string `json:"output_dir"`
	IncludeData bool   `json:"include_data"`
}

// ExportResult describes one written file.
type ExportResult struct {
	Preset     string `json:"preset"`
	FileName   string `json:"file_name"`
	Path       string `json:"path"`
	MimeType   string `json:"mime_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SizeBytes  int    `json:"size_bytes"`
	DataBase64 string `json:"data_base64,omitempty"`
}

func (s *Server) handleFrameExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, q, err := s.outputSettings(a.Format, a.Quality)
	if err != nil {
		return nil, err
	}

	art, err := s.exporter.Export(ctx, a.Preset, f, q)
	if err != nil {
		return s.skipOr(err)
	}
	res, err := s.save(art, a.OutputDir)
	if err != nil {
		return nil, err
	}
	if a.IncludeData {
		res.DataBase64 = base64.StdEncoding.EncodeToString(art.Bytes)
	}
	return res, nil
}

func (s *Server) save(art *export.Artifact, dir string) (*ExportResult, error) {
	if dir == "" {
		dir = s.outputDir
	}
	path, err := export.Save(art, dir)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Preset:    art.Preset,
		FileName:  art.FileName,
		Path:      path,
		MimeType:  art.MimeType,
		Width:     art.Width,
		Height:    art.Height,
		SizeBytes: len(art.Bytes),
	}, nil
}

type frameExportAllArgs struct {
	Format    string `json:"format"`
	Quality   string `json:"quality"`
	OutputDir string `json:"output_dir"`
}

// ExportAllResult lists written files and the presets left out for lack of
// a crop.
type ExportAllResult struct {
	Exported []*ExportResult `json:"exported"`
	Skipped  []string        `json:"skipped"`
}

func (s *Server) handleFrameExportAll(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameExportAllArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, q, err := s.outputSettings(a.Format, a.Quality)
	if err != nil {
		return nil, err
	}

	arts, err := s.exporter.ExportAll(ctx, f, q)
	if err != nil {
		return s.skipOr(err)
	}

	result := &ExportAllResult{Exported: []*ExportResult{}, Skipped: []string{}}
	done := make(map[string]bool, len(arts))
	for _, art := range arts {
		res, err := s.save(art, a.OutputDir)
		if err != nil {
			return nil, err
		}
		result.Exported = append(result.Exported, res)
		done[art.Preset] = true
	}
	for _, name := range s.session.Presets().Names() {
		if !done[name] {
			result.Skipped = append(result.Skipped, name)
		}
	}
	return result, nil
}

type frameShareArgs struct {
	Preset  string `json:"preset"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

// ShareResult is a published link.
type ShareResult struct {
	Preset   string `json:"preset"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

func (s *Server) handleFrameShare(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameShareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, q, err := s.outputSettings(a.Format, a.Quality)
	if err != nil {
		return nil, err
	}

	art, err := s.exporter.Export(ctx, a.Preset, f, q)
	if err != nil {
		return s.skipOr(err)
	}

	url, err := s.sharer.Share(ctx, art)
	switch {
	case errors.Is(err, share.ErrShareUnsupported):
		s.metrics.ObserveShare("unsupported")
		return nil, err
	case err != nil:
		s.metrics.ObserveShare("error")
		return nil, err
	}
	s.metrics.ObserveShare("ok")
	return &ShareResult{Preset: art.Preset, FileName: art.FileName, URL: url}, nil
}
