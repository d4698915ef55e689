package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/export"
	"github.com/ironsheep/image-framer-mcp/internal/imaging"
	"github.com/ironsheep/image-framer-mcp/internal/metrics"
	"github.com/ironsheep/image-framer-mcp/internal/preset"
	"github.com/ironsheep/image-framer-mcp/internal/session"
	"github.com/ironsheep/image-framer-mcp/internal/share"
)

// maxRequestSize bounds one JSON-RPC line; uploads arrive base64 encoded.
const maxRequestSize = 64 << 20

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	session  *session.Session
	exporter *export.Exporter
	sharer   share.Sharer
	logger   *zap.Logger
	metrics  *metrics.Metrics

	format       compose.Format
	quality      compose.Quality
	outputDir    string
	version      string
	requestLimit int
}

// Options configures a Server. Zero values fall back to the defaults.
type Options struct {
	Presets      *preset.Table
	Border       *compose.Border
	Format       compose.Format
	Quality      compose.Quality
	OutputDir    string
	CacheMaxCost int64
	Sharer       share.Sharer
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Version      string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) (*Server, error) {
	if opts.Presets == nil {
		opts.Presets = preset.DefaultTable()
	}
	border := compose.DefaultBorder
	if opts.Border != nil {
		border = *opts.Border
	}
	if opts.Format == "" {
		opts.Format = compose.PNG
	}
	if opts.Quality == "" {
		opts.Quality = compose.QualityHigh
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.CacheMaxCost <= 0 {
		opts.CacheMaxCost = imaging.DefaultCacheMaxCost
	}
	if opts.Sharer == nil {
		opts.Sharer = share.Unsupported{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	cache, err := imaging.NewImageCache(opts.CacheMaxCost)
	if err != nil {
		return nil, err
	}

	sess := session.New(opts.Presets, border,
		session.WithLogger(opts.Logger.Named("session")),
		session.WithMetrics(opts.Metrics))

	return &Server{
		cache:     cache,
		session:   sess,
		exporter:  export.New(sess, opts.Logger.Named("export"), opts.Metrics),
		sharer:    opts.Sharer,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		format:    opts.Format,
		quality:   opts.Quality,
		outputDir: opts.OutputDir,
		version:   opts.Version,

		requestLimit: maxRequestSize,
	}, nil
}

// Close releases the image cache.
func (s *Server) Close() {
	s.cache.Close()
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes newline-delimited requests from r until EOF or ctx ends.
// Requests are handled one at a time, in order. A line longer than the
// request limit is answered with a parse error and skipped.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, err := readLine(reader, s.requestLimit)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		if tooLong {
			s.logger.Warn("request too large", zap.Int("limit", s.requestLimit))
			s.reply(encoder, s.errorResponse(nil, -32700, "Parse error",
				fmt.Sprintf("request exceeds %d bytes", s.requestLimit)))
			continue
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", zap.Error(err))
			s.reply(encoder, s.errorResponse(nil, -32700, "Parse error", err.Error()))
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			s.reply(encoder, resp)
		}
	}
}

func (s *Server) reply(encoder *json.Encoder, resp *MCPResponse) {
	if err := encoder.Encode(resp); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// readLine returns the next line without its terminator. A line longer than
// limit is read to its end and discarded, and tooLong is set.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit+1 {
				line, tooLong = nil, true
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && (len(line) > 0 || tooLong):
			// Last line without a trailing newline.
		case err != nil:
			return nil, false, err
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, nil
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", zap.String("method", req.Method), zap.Any("id", req.ID))

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-framer-mcp",
				"version": s.version,
			},
		},
	}
}
