package server

import (
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data, err := s.exporter.ExportParticipantsXLSX(r.Context(), query)
	if err != nil {
		s.logger.Error("export.failed", "error", err, "query", query)
		s.respondError(w, http.StatusInternalServerError, "failed to export participants")
		return
	}

	filename := fmt.Sprintf("participants-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("export.write.failed", "error", err)
	}
}
