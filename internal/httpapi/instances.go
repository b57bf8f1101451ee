package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/usecase"
)

// handleListInstances handles GET /api/v1/instances
func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := s.service.ListInstances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: instances, Total: int64(len(instances))})
}

// handleProvisionInstance handles POST /api/v1/instances
func (s *Server) handleProvisionInstance(w http.ResponseWriter, r *http.Request) {
	var req usecase.ProvisionInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	req.WebhookURL = s.webhookURL

	instance, err := s.service.ProvisionInstance(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, instance)
}

// handleGetInstanceStatus handles GET /api/v1/instances/{instanceName}
func (s *Server) handleGetInstanceStatus(w http.ResponseWriter, r *http.Request) {
	instance, err := s.service.GetInstanceStatus(r.Context(), chi.URLParam(r, "instanceName"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instance)
}

// handleConnectInstance handles POST /api/v1/instances/{instanceName}/connect
func (s *Server) handleConnectInstance(w http.ResponseWriter, r *http.Request) {
	qr, err := s.service.ConnectInstance(r.Context(), chi.URLParam(r, "instanceName"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// handleRestartInstance handles POST /api/v1/instances/{instanceName}/restart
func (s *Server) handleRestartInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RestartInstance(r.Context(), chi.URLParam(r, "instanceName")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarting"})
}

// handleLogoutInstance handles POST /api/v1/instances/{instanceName}/logout
func (s *Server) handleLogoutInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.service.LogoutInstance(r.Context(), chi.URLParam(r, "instanceName")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleRemoveInstance handles DELETE /api/v1/instances/{instanceName}
func (s *Server) handleRemoveInstance(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveInstance(r.Context(), chi.URLParam(r, "instanceName")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
