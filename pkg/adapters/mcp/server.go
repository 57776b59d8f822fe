// Package mcp exposes the comfyforge engine as Model Context Protocol tools, so that
// agents can build, classify and check graphs.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/comfyforge"
	"github.com/aretw0/comfyforge/internal/validator"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/registry"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// Resource URIs.
const (
	CatalogURI      = "comfyforge://techniques"
	GraphSchemaURI  = "comfyforge://schemas/graph"
	ParamsSchemaURI = "comfyforge://schemas/parameters"
)

// Engine is the subset of comfyforge.Engine the tools call.
type Engine interface {
	Build(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters) (domain.Graph, error)
	Envelope(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters, clientID string) (wire.Envelope, error)
	DetectJSON(ctx context.Context, data []byte) domain.DetectedResult
	Techniques() []registry.Definition
	Technique(id domain.TechniqueID) (registry.Definition, error)
	CheckCompatibility(id domain.TechniqueID, available []domain.ClassType) (registry.Compatibility, error)
	Recommend(available []domain.ClassType) domain.TechniqueID
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("comfyforge", strings.TrimSpace(comfyforge.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_techniques",
		mcp.WithDescription("List every technique with its defaults, required models and required custom nodes."),
	), s.handleList)

	s.mcpServer.AddTool(mcp.NewTool("build_graph",
		mcp.WithDescription("Build an executable node graph for a technique."),
		mcp.WithString("technique", mcp.Required(), mcp.Description("Technique id, e.g. flux-dev")),
		mcp.WithObject("parameters", mcp.Required(), mcp.Description("Build parameters; prompt is required")),
		mcp.WithBoolean("envelope", mcp.Description("Wrap the graph in a submission envelope")),
		mcp.WithString("client_id", mcp.Description("Client id for the envelope (optional)")),
	), s.handleBuild)

	s.mcpServer.AddTool(mcp.NewTool("detect_technique",
		mcp.WithDescription("Classify a node graph and extract its parameters."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("The graph as a JSON document")),
	), s.handleDetect)

	s.mcpServer.AddTool(mcp.NewTool("validate_graph",
		mcp.WithDescription("Check a node graph against the wire schema, then lint dangling wires and nodes that feed no output."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("The graph as a JSON document")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("check_compatibility",
		mcp.WithDescription("Report which custom nodes an executor lacks to run a technique."),
		mcp.WithString("technique", mcp.Required(), mcp.Description("Technique id")),
		mcp.WithArray("available_node_types", mcp.Description("Custom opcodes installed on the executor"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleCompatibility)

	s.mcpServer.AddTool(mcp.NewTool("recommend_technique",
		mcp.WithDescription("Pick the best technique an executor can run."),
		mcp.WithArray("available_node_types", mcp.Description("Custom opcodes installed on the executor"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleRecommend)
}

func (s *Server) handleList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Techniques())
}

func (s *Server) handleBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("technique")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := request.GetArguments()["parameters"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("parameters must be an object"), nil
	}
	params, err := wire.DecodeParameters(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if request.GetBool("envelope", false) {
		env, err := s.engine.Envelope(ctx, domain.TechniqueID(id), params, request.GetString("client_id", ""))
		if err != nil {
			s.logger.DebugContext(ctx, "MCP build rejected", "technique", id, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(env)
	}

	g, err := s.engine.Build(ctx, domain.TechniqueID(id), params)
	if err != nil {
		s.logger.DebugContext(ctx, "MCP build rejected", "technique", id, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(g)
}

func (s *Server) handleDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, ok := graphArgument(request)
	if !ok {
		return mcp.NewToolResultError("graph is required"), nil
	}
	return jsonResult(s.engine.DetectJSON(ctx, data))
}

func (s *Server) handleValidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, ok := graphArgument(request)
	if !ok {
		return mcp.NewToolResultError("graph is required"), nil
	}
	g, err := wire.DecodeGraph(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report := validator.Check(g)
	if err := report.Err(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func graphArgument(request mcp.CallToolRequest) ([]byte, bool) {
	switch v := request.GetArguments()["graph"].(type) {
	case string:
		return []byte(v), true
	case map[string]any:
		// Some clients send the graph as an object despite the declared type.
		data, err := json.Marshal(v)
		return data, err == nil
	}
	return nil, false
}

func (s *Server) handleCompatibility(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("technique")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.engine.CheckCompatibility(domain.TechniqueID(id), available(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c)
}

func (s *Server) handleRecommend(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]domain.TechniqueID{"technique": s.engine.Recommend(available(request))})
}

func available(request mcp.CallToolRequest) []domain.ClassType {
	var out []domain.ClassType
	for _, s := range request.GetStringSlice("available_node_types", nil) {
		out = append(out, domain.ClassType(s))
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Technique catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Techniques())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return textResource(CatalogURI, data), nil
	})

	for uri, schema := range map[string][]byte{
		GraphSchemaURI:  wire.GraphSchema(),
		ParamsSchemaURI: wire.ParametersSchema(),
	} {
		s.mcpServer.AddResource(mcp.NewResource(uri, "JSON schema",
			mcp.WithMIMEType("application/schema+json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return textResource(uri, schema), nil
		})
	}
}

func textResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}
