// Package mcp exposes source lookup to external agents over the Model
// Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arturoeanton/vitaldocs-rag/internal/domain"
	"github.com/arturoeanton/vitaldocs-rag/internal/rag"
	"github.com/arturoeanton/vitaldocs-rag/internal/service"
)

// Version is the MCP server version.
const Version = "1.0.0"

// Tool names.
const (
	ToolLookupSources  = "lookup_sources"
	ToolCitationFormat = "citation_format"
)

// Server wraps an MCP server with the VitalDocs tools registered.
type Server struct {
	lookup *service.LookupService
	port   string
	server *mcp.Server
}

// NewServer creates an MCP server listening on port once started.
func NewServer(lookup *service.LookupService, port string) *Server {
	s := &Server{
		lookup: lookup,
		port:   port,
		server: mcp.NewServer(&mcp.Implementation{Name: "vitaldocs", Version: Version}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.server }

// Start serves the streamable HTTP transport at /mcp until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil))

	httpServer := &http.Server{
		Addr:              ":" + s.port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server starting", "port", s.port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type lookupArgs struct {
	Query string `json:"query"`
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        ToolLookupSources,
		Description: "Find the CDC guideline passages most relevant to a clinical question. Returns title, url, snippet and similarity (0-100) for each match.",
		InputSchema: objectSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Clinical question, at most 500 characters"},
		}, "query"),
	}, s.handleLookup)

	s.server.AddTool(&mcp.Tool{
		Name:        ToolCitationFormat,
		Description: "Describe the inline citation marker used in VitalDocs answers.",
		InputSchema: objectSchema(map[string]any{}),
	}, s.handleCitationFormat)
}

func (s *Server) handleLookup(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args lookupArgs
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
	}

	start := time.Now()
	sources, err := s.lookup.Lookup(ctx, args.Query)
	slog.Info("mcp tool call", "action", domain.AuditActionMCPCall, "tool", ToolLookupSources,
		"results", len(sources), "duration_ms", time.Since(start).Milliseconds(), "error", err)
	if err != nil {
		return toolError(err), nil
	}
	if sources == nil {
		sources = []domain.SourceCitation{}
	}
	return jsonResult(map[string]any{"sources": sources})
}

func (s *Server) handleCitationFormat(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{
		"version": rag.CitationFormatVersion,
		"pattern": rag.CitationPattern,
		"example": rag.FormatCitation(1, "CDC Clinical Overview of Measles"),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
