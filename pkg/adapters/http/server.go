package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/compiler"
	"github.com/aretw0/pageflow/internal/presentation/graph"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server exposes a SequenceEngine over HTTP.
type Server struct {
	Engine ports.SequenceEngine
	// Loader supplies the template when a request omits one.
	Loader  ports.TemplateLoader
	Metrics http.Handler
	Logger  *slog.Logger

	parser *compiler.Parser
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the handler.
type Option func(*Server)

// WithLoader sets the template used by requests that carry none.
func WithLoader(l ports.TemplateLoader) Option {
	return func(s *Server) {
		s.Loader = l
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.SequenceEngine, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		Logger: slog.Default(),
		parser: compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		// The embedded document is JSON, which YAML readers accept as is.
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.Logger.Error("Failed to load OpenAPI spec", "error", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		if _, err := w.Write(spec); err != nil {
			server.Logger.Error("spec write failed", "error", err)
		}
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(swaggerHTML)); err != nil {
			server.Logger.Error("swagger page write failed", "error", err)
		}
	})
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}

	handler := HandlerFromMux(server, r)
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>PageFlow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// request is a decoded FlowRequest.
type request struct {
	data  map[string]any
	start int
}

// Generate handles the POST /generate request.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	req, tpl, ok := s.decode(w, r, "Generate")
	if !ok {
		return
	}

	res, err := s.Engine.Generate(r.Context(), tpl, req.data, req.start)
	if err != nil {
		http.Error(w, fmt.Sprintf("Generate error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Generate failed", "error", err)
		return
	}
	writeJSON(w, s.Logger, http.StatusOK, mapResultFromDomain(res))
}

// Validate handles the POST /validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	req, tpl, ok := s.decode(w, r, "Validate")
	if !ok {
		return
	}

	report := s.Engine.Validate(tpl, req.start)
	writeJSON(w, s.Logger, http.StatusOK, ValidateResponse{
		Valid:  report.Valid(),
		Report: mapReportFromDomain(report),
	})
}

// Graph handles the POST /graph request. When data is given, the generated
// sequence is drawn as an overlay.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	req, tpl, ok := s.decode(w, r, "Graph")
	if !ok {
		return
	}

	var overlay *graph.GraphOverlay
	if req.data != nil {
		res, err := s.Engine.Generate(r.Context(), tpl, req.data, req.start)
		if err != nil {
			http.Error(w, fmt.Sprintf("Generate error: %v", err), http.StatusInternalServerError)
			s.Logger.Error("Graph generation failed", "error", err)
			return
		}
		overlay = graph.OverlayFromResult(res)
	}
	s.writeGraph(w, tpl, req.start, overlay)
}

// GetGraph handles the GET /graph request for the server template.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, params GetGraphParams) {
	tpl, ok := s.load(w, r, "GetGraph")
	if !ok {
		return
	}
	start := 0
	if params.Start != nil {
		start = *params.Start
	}
	s.writeGraph(w, tpl, start, nil)
}

func (s *Server) writeGraph(w http.ResponseWriter, tpl *domain.Template, start int, overlay *graph.GraphOverlay) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(graph.GenerateMermaid(tpl.Pages, start, overlay))); err != nil {
		s.Logger.Error("Graph response write failed", "error", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, InfoResponse{
		App:     "pageflow-http",
		Version: strings.TrimSpace(pageflow.Version),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string) (request, *domain.Template, bool) {
	var body FlowRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn(op+": Invalid request body", "error", err)
		return request{}, nil, false
	}

	var req request
	if body.Data != nil {
		req.data = *body.Data
	}
	if body.Start != nil {
		req.start = *body.Start
	}

	if body.Template == nil {
		tpl, ok := s.load(w, r, op)
		return req, tpl, ok
	}

	tpl, err := s.parser.DecodeTemplate(*body.Template)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid template: %v", err), http.StatusBadRequest)
		s.Logger.Warn(op+": Invalid template", "error", err)
		return req, nil, false
	}
	return req, tpl, true
}

// load returns the server template.
func (s *Server) load(w http.ResponseWriter, r *http.Request, op string) (*domain.Template, bool) {
	if s.Loader == nil {
		http.Error(w, "Missing template", http.StatusBadRequest)
		return nil, false
	}
	tpl, err := s.Loader.Load(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), status)
		s.Logger.Error(op+": template load failed", "error", err)
		return nil, false
	}
	return tpl, true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}

// optional returns nil for an empty slice, matching omitempty in the domain types.
func optional[T any](v []T) *[]T {
	if len(v) == 0 {
		return nil
	}
	return &v
}

func mapResultFromDomain(res domain.Result) Result {
	out := Result{
		RunId:          res.RunID,
		StartPageIndex: res.StartPageIndex,
		Sequence:       make([]SequenceEntry, 0, len(res.Sequence)),
		Diagnostics: Diagnostics{
			Errors: optional(mapErrorsFromDomain(res.Diagnostics.ErrorLog)),
		},
	}
	if res.Cached {
		out.Cached = ptr(true)
	}
	for _, e := range res.Sequence {
		entry := SequenceEntry{
			PageIndex:      e.PageIndex,
			IterationIndex: e.IterationIndex,
			BoundContext:   e.BoundContext.Map(),
		}
		if entry.BoundContext == nil {
			entry.BoundContext = map[string]interface{}{}
		}
		if e.PageName != "" {
			entry.PageName = ptr(e.PageName)
		}
		out.Sequence = append(out.Sequence, entry)
	}

	var log []LogEntry
	for _, l := range res.Diagnostics.ExecutionLog {
		entry := LogEntry{Time: l.Time, PageIndex: l.PageIndex, Message: l.Message}
		if len(l.Attrs) > 0 {
			entry.Attrs = ptr(l.Attrs)
		}
		log = append(log, entry)
	}
	out.Diagnostics.ExecutionLog = optional(log)
	return out
}

func mapReportFromDomain(r *domain.Report) Report {
	reachable := r.Reachable
	if reachable == nil {
		reachable = []int{}
	}
	return Report{
		Errors:      optional(mapErrorsFromDomain(r.Errors)),
		Warnings:    optional(r.Warnings),
		Rejected:    optional(r.Rejected),
		Reachable:   reachable,
		Unreachable: optional(r.Unreachable),
	}
}

func mapErrorsFromDomain(errs []*domain.FlowError) []FlowError {
	var out []FlowError
	for _, e := range errs {
		fe := FlowError{
			Kind:           FlowErrorKind(e.Kind),
			PageIndex:      e.PageIndex,
			ConditionIndex: e.ConditionIndex,
			Message:        e.Message,
		}
		if e.Err != nil {
			fe.Cause = ptr(e.Err.Error())
		}
		out = append(out, fe)
	}
	return out
}
