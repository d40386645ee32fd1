// Package api exposes the audit engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"seoaudit/internal/audit"
)

// Server wires the audit service onto an HTTP mux.
type Server struct {
	service *audit.Service
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer constructs the HTTP front for an audit service.
func NewServer(service *audit.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: service,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/audit", s.handleAudit)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json"})
		return
	}

	result, err := s.service.Audit(r.Context(), audit.Request{
		URL:           req.URL,
		MaxPages:      req.MaxPages,
		RespectRobots: req.RespectRobots,
	})
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrInvalidURL):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: audit.ErrInvalidURL.Error()})
		case errors.Is(err, audit.ErrInvalidMaxPages):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: audit.ErrInvalidMaxPages.Error()})
		default:
			s.logger.Error("audit failed", "url", req.URL, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
