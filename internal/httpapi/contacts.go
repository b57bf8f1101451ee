package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
)

// handleListContacts handles GET /api/v1/contacts
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 20, 100)
	contacts, total, err := s.service.ListContacts(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: contacts, Total: total})
}

// handleGetContact handles GET /api/v1/contacts/{contactID}
func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.service.GetContact(r.Context(), chi.URLParam(r, "contactID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// handleRenameContact handles PATCH /api/v1/contacts/{contactID}
func (s *Server) handleRenameContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomName *string `json:"custom_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	if req.CustomName == nil {
		writeError(w, fmt.Errorf("%w: custom_name is required", apperrors.ErrValidation))
		return
	}

	contact, err := s.service.RenameContact(r.Context(), chi.URLParam(r, "contactID"), *req.CustomName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}
