package server

import (
	"encoding/json"
	"net/http"

	"github.com/mbshop/MIM-egistration-2027/internal/common"
	"github.com/mbshop/MIM-egistration-2027/internal/entity"
)

type createParticipantRequest struct {
	Surname        string `json:"surname"`
	GivenName      string `json:"given_name"`
	BirthDate      string `json:"birth_date"`
	Sex            string `json:"sex"`
	Country        string `json:"country"`
	City           string `json:"city"`
	DocumentNumber string `json:"document_number"`
}

func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	var req createParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("participants.decode.failed", "error", err)
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := common.NewValidator().
		Field("surname", req.Surname, common.Required, common.MaxLength(100)).
		Field("given_name", req.GivenName, common.Required, common.MaxLength(100)).
		Field("birth_date", req.BirthDate, common.Required, common.BirthDate).
		Field("sex", req.Sex, common.Required, common.SexCode).
		Field("country", req.Country, common.Required, common.MaxLength(100)).
		Field("city", req.City, common.Required, common.MaxLength(100)).
		// The document number is the one optional field: OCR regularly
		// misses it and the desk can fill it in later.
		Field("document_number", req.DocumentNumber, common.MaxLength(40))
	if v.HasErrors() {
		s.respondError(w, http.StatusUnprocessableEntity, v.Error().Error())
		return
	}

	p := &entity.Participant{
		Surname:        req.Surname,
		GivenName:      req.GivenName,
		BirthDate:      req.BirthDate,
		Sex:            req.Sex,
		Country:        req.Country,
		City:           req.City,
		DocumentNumber: req.DocumentNumber,
	}
	if err := s.repo.Insert(r.Context(), p); err != nil {
		s.logger.Error("participants.insert.failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to register participant")
		return
	}

	s.logger.Info("participants.created", "id", p.ID.String())
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	recs, err := s.repo.List(r.Context(), query)
	if err != nil {
		s.logger.Error("participants.list.failed", "error", err, "query", query)
		s.respondError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"participants": recs,
		"count":        len(recs),
	})
}
