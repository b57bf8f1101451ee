package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/usecase"
)

// handleGetChatbotConfig handles GET /api/v1/chatbot/config
func (s *Server) handleGetChatbotConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.GetChatbotConfig(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateChatbotConfig handles PUT /api/v1/chatbot/config
func (s *Server) handleUpdateChatbotConfig(w http.ResponseWriter, r *http.Request) {
	var req usecase.ChatbotConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}

	cfg, err := s.service.UpdateChatbotConfig(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleListQuickReplies handles GET /api/v1/quick-replies
func (s *Server) handleListQuickReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := s.service.ListQuickReplies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: replies, Total: int64(len(replies))})
}

// handleCreateQuickReply handles POST /api/v1/quick-replies
func (s *Server) handleCreateQuickReply(w http.ResponseWriter, r *http.Request) {
	var reply model.QuickReply
	if err := json.NewDecoder(r.Body).Decode(&reply); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}

	created, err := s.service.CreateQuickReply(r.Context(), reply)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeleteQuickReply handles DELETE /api/v1/quick-replies/{id}
func (s *Server) handleDeleteQuickReply(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteQuickReply(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListClassifications handles GET /api/v1/classifications
func (s *Server) handleListClassifications(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	classifications, err := s.service.ListClassifications(r.Context(), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: classifications, Total: int64(len(classifications))})
}

// handleCreateClassification handles POST /api/v1/classifications
func (s *Server) handleCreateClassification(w http.ResponseWriter, r *http.Request) {
	var classification model.Classification
	if err := json.NewDecoder(r.Body).Decode(&classification); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}

	created, err := s.service.CreateClassification(r.Context(), classification)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleDeactivateClassification handles DELETE /api/v1/classifications/{id}
func (s *Server) handleDeactivateClassification(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeactivateClassification(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListTeams handles GET /api/v1/teams
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.service.ListTeams(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: teams, Total: int64(len(teams))})
}
