package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/compiler"
	"github.com/aretw0/pageflow/internal/presentation/graph"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
)

const templateURI = "pageflow://template"

// Server wraps a SequenceEngine and exposes it as an MCP Server.
type Server struct {
	engine    ports.SequenceEngine
	loader    ports.TemplateLoader
	parser    *compiler.Parser
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. The loader supplies the
// template when a tool call carries none; it may be nil.
func NewServer(engine ports.SequenceEngine, loader ports.TemplateLoader) *Server {
	s := &Server{
		engine:    engine,
		loader:    loader,
		parser:    compiler.NewParser(),
		mcpServer: server.NewMCPServer("pageflow-mcp", strings.TrimSpace(pageflow.Version)),
	}
	s.registerTools()
	if loader != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: generate_sequence
	s.mcpServer.AddTool(mcp.NewTool("generate_sequence",
		mcp.WithDescription("Compute the ordered page sequence of a template for a data context."),
		mcp.WithString("template", mcp.Description("JSON template document (optional when the server has a default template)")),
		mcp.WithString("context", mcp.Description("JSON object with the data context (optional)")),
		mcp.WithNumber("start", mcp.Description("Start page index (default 0)")),
	), s.handleGenerate)

	// TOOL: validate_template
	s.mcpServer.AddTool(mcp.NewTool("validate_template",
		mcp.WithDescription("Statically validate a template: flow configs, targets, script safety and reachability."),
		mcp.WithString("template", mcp.Description("JSON template document (optional when the server has a default template)")),
		mcp.WithNumber("start", mcp.Description("Start page index (default 0)")),
	), s.handleValidate)

	// TOOL: render_graph
	s.mcpServer.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render the template as a Mermaid flowchart, highlighting the generated sequence when a context is given."),
		mcp.WithString("template", mcp.Description("JSON template document (optional when the server has a default template)")),
		mcp.WithString("context", mcp.Description("JSON object with the data context (optional)")),
		mcp.WithNumber("start", mcp.Description("Start page index (default 0)")),
	), s.handleGraph)
}

type toolArgs struct {
	tpl   *domain.Template
	data  map[string]any
	start int
}

func (s *Server) parseArgs(ctx context.Context, request mcp.CallToolRequest) (toolArgs, error) {
	args := request.GetArguments()
	var out toolArgs

	if n, ok := args["start"].(float64); ok {
		out.start = int(n)
	}

	if ctxStr, ok := args["context"].(string); ok && ctxStr != "" {
		if err := json.Unmarshal([]byte(ctxStr), &out.data); err != nil {
			return out, fmt.Errorf("invalid context: %w", err)
		}
	}

	tplStr, _ := args["template"].(string)
	if tplStr == "" {
		if s.loader == nil {
			return out, fmt.Errorf("template is required")
		}
		tpl, err := s.loader.Load(ctx)
		if err != nil {
			return out, fmt.Errorf("failed to load template: %w", err)
		}
		out.tpl = tpl
		return out, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(tplStr), &raw); err != nil {
		return out, fmt.Errorf("invalid template: %w", err)
	}
	tpl, err := s.parser.DecodeTemplate(raw)
	if err != nil {
		return out, err
	}
	out.tpl = tpl
	return out, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := s.parseArgs(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.engine.Generate(ctx, args.tpl, args.data, args.start)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generate failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := s.parseArgs(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := s.engine.Validate(args.tpl, args.start)
	jsonBytes, err := json.Marshal(map[string]any{
		"valid":  report.Valid(),
		"report": report,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := s.parseArgs(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var overlay *graph.GraphOverlay
	if args.data != nil {
		res, err := s.engine.Generate(ctx, args.tpl, args.data, args.start)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("generate failed: %v", err)), nil
		}
		overlay = graph.OverlayFromResult(res)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(args.tpl.Pages, args.start, overlay)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: pageflow://template
	s.mcpServer.AddResource(mcp.NewResource(templateURI, "Current Template Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tpl, err := s.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		jsonBytes, err := json.Marshal(tpl)
		if err != nil {
			return nil, fmt.Errorf("failed to encode template: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      templateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
