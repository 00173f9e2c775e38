package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/usecase"
	"movement-hold-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// EventHandler processes resource-typed JSON events
type EventHandler interface {
	Supports(resourceType string) bool
	HandleEvent(ctx context.Context, resourceType string, body []byte) error
}

// AuditReader reads recent audit records
type AuditReader interface {
	Recent(ctx context.Context, messageType string) ([]*entity.AuditRecord, error)
}

// Server exposes the synchronous ingress, the audit read endpoint, health and metrics
type Server struct {
	events   EventHandler
	audit    AuditReader
	gatherer prometheus.Gatherer
	version  string
	logger   logger.Logger
}

// NewServer creates a new HTTP API server
func NewServer(events EventHandler, audit AuditReader, gatherer prometheus.Gatherer, version string, logger logger.Logger) *Server {
	return &Server{
		events:   events,
		audit:    audit,
		gatherer: gatherer,
		version:  version,
		logger:   logger,
	}
}

// Routes builds the chi router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/events/{resourceType}", s.postEvent)
		api.Get("/audit", s.getAudit)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	resourceType := chi.URLParam(r, "resourceType")
	if !s.events.Supports(resourceType) {
		writeError(w, http.StatusNotFound, "unknown resource type: "+resourceType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if err := s.events.HandleEvent(r.Context(), resourceType, body); err != nil {
		var decodeErr *usecase.DecodeError
		if errors.As(err, &decodeErr) {
			writeError(w, http.StatusBadRequest, decodeErr.Error())
			return
		}
		s.logger.Error("Failed to handle event",
			"resourceType", resourceType,
			"requestId", middleware.GetReqID(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type auditResponse struct {
	MessageType string                `json:"messageType"`
	Since       time.Time             `json:"since"`
	Records     []*entity.AuditRecord `json:"records"`
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	messageType := r.URL.Query().Get("messageType")
	if messageType == "" {
		writeError(w, http.StatusBadRequest, "messageType is required")
		return
	}

	records, err := s.audit.Recent(r.Context(), messageType)
	if err != nil {
		s.logger.Error("Failed to read audit records", "messageType", messageType, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read audit records")
		return
	}
	if records == nil {
		records = []*entity.AuditRecord{}
	}

	writeJSON(w, http.StatusOK, auditResponse{
		MessageType: messageType,
		Since:       time.Now().UTC().Add(-usecase.AuditWindow),
		Records:     records,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
