// Package http exposes the comfyforge engine as a JSON API on a chi router.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/comfyforge/internal/validator"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/registry"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// maxBodyBytes caps request bodies. Graphs of real workflows stay well below it.
const maxBodyBytes = 4 << 20

// Engine is the subset of comfyforge.Engine the server needs.
type Engine interface {
	Build(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters) (domain.Graph, error)
	Envelope(ctx context.Context, id domain.TechniqueID, p domain.BuildParameters, clientID string) (wire.Envelope, error)
	DetectJSON(ctx context.Context, data []byte) domain.DetectedResult
	Techniques() []registry.Definition
	Technique(id domain.TechniqueID) (registry.Definition, error)
	CheckCompatibility(id domain.TechniqueID, available []domain.ClassType) (registry.Compatibility, error)
	Recommend(available []domain.ClassType) domain.TechniqueID
}

// ExecutorRequest carries the opcodes an executor has installed.
type ExecutorRequest struct {
	AvailableNodeTypes []domain.ClassType `json:"available_node_types"`
}

// RecommendResponse names the chosen technique.
type RecommendResponse struct {
	Technique domain.TechniqueID `json:"technique"`
}

// ValidateResponse is returned for a well-formed graph.
type ValidateResponse struct {
	Valid      bool               `json:"valid"`
	Nodes      int                `json:"nodes"`
	ClassTypes []domain.ClassType `json:"class_types"`
	Unknown    []domain.ClassType `json:"unknown_class_types,omitempty"`
	Outputs    []domain.NodeID    `json:"outputs"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Code       domain.ErrorCode   `json:"code,omitempty"`
	Field      string             `json:"field,omitempty"`
	Violations []wire.Violation   `json:"violations,omitempty"`
	Technique  domain.TechniqueID `json:"technique,omitempty"`
}

// Server holds the handlers.
type Server struct {
	Engine  Engine
	Logger  *slog.Logger
	metrics http.Handler
	path    string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// WithMetricsHandler mounts h (typically promhttp) at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.path = path
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Route("/techniques", func(r chi.Router) {
		r.Get("/", s.ListTechniques)
		r.Get("/{id}", s.GetTechnique)
		r.Post("/{id}/build", s.Build)
		r.Post("/{id}/compatibility", s.CheckCompatibility)
	})
	r.Post("/detect", s.Detect)
	r.Post("/recommend", s.Recommend)
	r.Post("/validate", s.Validate)
	r.Get("/schemas/graph.json", schemaHandler(wire.GraphSchema()))
	r.Get("/schemas/parameters.json", schemaHandler(wire.ParametersSchema()))
	if s.metrics != nil {
		r.Handle(s.path, s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func schemaHandler(schema []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/schema+json")
		_, _ = w.Write(schema)
	}
}

// ListTechniques handles GET /techniques.
func (s *Server) ListTechniques(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Techniques())
}

// GetTechnique handles GET /techniques/{id}.
func (s *Server) GetTechnique(w http.ResponseWriter, r *http.Request) {
	def, err := s.Engine.Technique(techniqueID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

// Build handles POST /techniques/{id}/build. The body is a parameter document.
// With ?envelope=true the graph is wrapped for submission; client_id reuses a listener id.
func (s *Server) Build(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readJSON(w, r)
	if !ok {
		return
	}
	params, err := wire.ParseParameters(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := techniqueID(r)
	if wrap, _ := strconv.ParseBool(r.URL.Query().Get("envelope")); wrap {
		env, err := s.Engine.Envelope(r.Context(), id, params, r.URL.Query().Get("client_id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, env)
		return
	}

	g, err := s.Engine.Build(r.Context(), id, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

// Detect handles POST /detect. Any JSON body is accepted; non-graphs classify as unknown.
func (s *Server) Detect(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readJSON(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.DetectJSON(r.Context(), body))
}

// CheckCompatibility handles POST /techniques/{id}/compatibility.
func (s *Server) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readExecutor(w, r)
	if !ok {
		return
	}
	c, err := s.Engine.CheckCompatibility(techniqueID(r), req.AvailableNodeTypes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readExecutor(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, RecommendResponse{Technique: s.Engine.Recommend(req.AvailableNodeTypes)})
}

// Validate handles POST /validate: schema check, referential closure and output reachability.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readJSON(w, r)
	if !ok {
		return
	}
	g, err := wire.DecodeGraph(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report := validator.Check(g)
	if err := report.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := ValidateResponse{
		Valid:      true,
		Nodes:      len(g),
		ClassTypes: g.ClassTypes(),
		Outputs:    report.Outputs,
	}
	for _, issue := range report.Warnings() {
		resp.Warnings = append(resp.Warnings, issue.String())
	}
	for _, ct := range resp.ClassTypes {
		if !ct.Known() {
			resp.Unknown = append(resp.Unknown, ct)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func techniqueID(r *http.Request) domain.TechniqueID {
	return domain.TechniqueID(chi.URLParam(r, "id"))
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		s.Logger.WarnContext(r.Context(), "request body rejected", "path", r.URL.Path, "error", err)
		return nil, false
	}
	if !json.Valid(body) {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		s.Logger.WarnContext(r.Context(), "invalid JSON body", "path", r.URL.Path)
		return nil, false
	}
	return body, true
}

// An empty body means an executor with core opcodes only.
func (s *Server) readExecutor(w http.ResponseWriter, r *http.Request) (ExecutorRequest, bool) {
	var req ExecutorRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		s.Logger.WarnContext(r.Context(), "invalid executor body", "path", r.URL.Path, "error", err)
		return req, false
	}
	return req, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *domain.ValidationError
		nf     *domain.NotFoundError
		schema *wire.SchemaError
	)
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: verr.Code, Field: verr.Field})
	case errors.As(err, &nf):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Technique: nf.ID})
	case errors.As(err, &schema):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Violations: schema.Violations})
	case errors.Is(err, domain.ErrBrokenGraph):
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		s.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		return
	}
	s.Logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "error", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}
