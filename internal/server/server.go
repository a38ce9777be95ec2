package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mbshop/MIM-egistration-2027/internal/extract"
	"github.com/mbshop/MIM-egistration-2027/internal/repository"
)

// Extractor produces a reconciled field record from a document image on disk.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) extract.FieldRecord
}

// Exporter renders the participant list as an XLSX workbook.
type Exporter interface {
	ExportParticipantsXLSX(ctx context.Context, query string) ([]byte, error)
}

// Server wires the HTTP API: document extraction, participant CRUD and export.
type Server struct {
	extractor Extractor
	repo      repository.ParticipantRepository
	exporter  Exporter
	db        *sql.DB
	logger    *slog.Logger
}

func New(extractor Extractor, repo repository.ParticipantRepository, exporter Exporter, db *sql.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		extractor: extractor,
		repo:      repo,
		exporter:  exporter,
		db:        db,
		logger:    logger,
	}
}

func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/documents", s.handleExtractDocument).Methods(http.MethodPost)
	router.HandleFunc("/api/participants", s.handleCreateParticipant).Methods(http.MethodPost)
	router.HandleFunc("/api/participants", s.handleListParticipants).Methods(http.MethodGet)
	router.HandleFunc("/api/participants/export", s.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Error("healthz.db.unreachable", "error", err)
			s.respondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("http.marshal.failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		s.logger.Error("http.write.failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
