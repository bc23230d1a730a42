// Package api provides the RESTful HTTP interface of promptpack.
//
// It exposes the template library, the validate-then-render pipeline and the
// output conformance checker to external tooling: list and fetch templates,
// render one with caller-supplied slot values, and verify agent output
// against a template's contract before surfacing it to a user.
//
// ENDPOINT STRUCTURE:
// - GET  /api/v1/templates        list templates (?q= fuzzy search)
// - GET  /api/v1/templates/{id}   fetch one template with content
// - PUT  /api/v1/templates/{id}   create or update a template
// - DELETE /api/v1/templates/{id} remove a template
// - POST /api/v1/render           validate inputs and render a template
// - POST /api/v1/verify           check agent output against the contract
// - GET  /api/v1/health           health probe
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
	"github.com/dbod-pe/promptpack/internal/service"
)

// Server provides the HTTP API with a small middleware stack
type Server struct {
	service      *service.Service
	errorHandler *errors.HTTPErrorHandler
	logger       *zap.Logger
	port         int
	server       *http.Server
}

// NewServer creates a new API server instance
func NewServer(svc *service.Service, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service:      svc,
		errorHandler: errors.NewHTTPErrorHandler(true, logger),
		logger:       logger,
		port:         port,
	}
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/templates", s.withMiddleware(s.handleTemplates))
	mux.HandleFunc("/api/v1/templates/", s.withMiddleware(s.handleTemplatesWithID))
	mux.HandleFunc("/api/v1/render", s.withMiddleware(s.handleRender))
	mux.HandleFunc("/api/v1/verify", s.withMiddleware(s.handleVerify))
	mux.HandleFunc("/api/v1/health", s.withMiddleware(s.handleHealth))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("API server listening", zap.Int("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// withMiddleware applies the standard middleware stack to a handler
func (s *Server) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return s.loggingMiddleware(s.corsMiddleware(s.recoveryMiddleware(handler)))
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

func (s *Server) recoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				s.writeError(w, errors.InternalError("Internal server error"))
			}
		}()
		next(w, r)
	}
}

// APIResponse is the standard response envelope
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s *Server) writeResponse(w http.ResponseWriter, data interface{}, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success:   statusCode < 400,
		Data:      data,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.errorHandler.WriteHTTPError(w, err)
}

// handleTemplates routes the template collection endpoint
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.NewAppError(errors.ErrCodeInvalidCommand, "Method not allowed"))
		return
	}

	query := r.URL.Query().Get("q")
	templates, err := s.service.SearchTemplates(query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeResponse(w, templates, fmt.Sprintf("%d template(s)", len(templates)), http.StatusOK)
}

// handleTemplatesWithID routes requests for a specific template
func (s *Server) handleTemplatesWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/templates/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, errors.ValidationError("Invalid template id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		tmpl, err := s.service.GetTemplate(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, templateView(tmpl), "", http.StatusOK)

	case http.MethodPut:
		var tmpl models.Template
		if err := decodeBody(r, &tmpl); err != nil {
			s.writeError(w, err)
			return
		}
		tmpl.ID = id
		if err := s.service.SaveTemplate(&tmpl); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, nil, "Template saved", http.StatusOK)

	case http.MethodDelete:
		if err := s.service.DeleteTemplate(id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, nil, "Template deleted", http.StatusOK)

	default:
		s.writeError(w, errors.NewAppError(errors.ErrCodeInvalidCommand, "Method not allowed"))
	}
}

// RenderRequest is the body of POST /api/v1/render
type RenderRequest struct {
	TemplateID string                 `json:"template_id"`
	Inputs     map[string]interface{} `json:"inputs"`
	Format     string                 `json:"format,omitempty"` // "text" (default) or "json"
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, errors.NewAppError(errors.ErrCodeInvalidCommand, "Method not allowed"))
		return
	}

	var req RenderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.TemplateID == "" {
		s.writeError(w, errors.ValidationError("template_id is required"))
		return
	}

	if req.Format == "json" {
		rendered, err := s.service.RenderJSON(req.TemplateID, req.Inputs)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, json.RawMessage(rendered), "", http.StatusOK)
		return
	}

	rendered, err := s.service.Render(req.TemplateID, req.Inputs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, rendered, "", http.StatusOK)
}

// VerifyRequest is the body of POST /api/v1/verify
type VerifyRequest struct {
	TemplateID string                 `json:"template_id"`
	Output     string                 `json:"output"`
	Inputs     map[string]interface{} `json:"inputs,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, errors.NewAppError(errors.ErrCodeInvalidCommand, "Method not allowed"))
		return
	}

	var req VerifyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.TemplateID == "" {
		s.writeError(w, errors.ValidationError("template_id is required"))
		return
	}

	report, err := s.service.Verify(req.TemplateID, req.Output, req.Inputs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeResponse(w, report, "", http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status":      "ok",
		"library_dir": s.service.BaseDir(),
		"git_sync":    s.service.GitStatus(),
	}, "", http.StatusOK)
}

// templateView shapes a template for JSON responses
func templateView(t *models.Template) map[string]interface{} {
	view := map[string]interface{}{
		"id":          t.ID,
		"version":     t.Version,
		"name":        t.Name,
		"description": t.Description,
		"slots":       t.Slots,
		"content":     t.Content,
		"created_at":  t.CreatedAt,
		"updated_at":  t.UpdatedAt,
	}
	if t.Contract != nil {
		view["contract"] = t.Contract
	}
	return view
}

func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 4<<20))
	if err != nil {
		return errors.ValidationError("Failed to read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.ValidationError("Invalid JSON body").WithDetails(err.Error())
	}
	return nil
}
