package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/actor"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/usecase"
)

type listResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

func pageParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// handleListConversations handles GET /api/v1/conversations
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := storage.ConversationFilter{
		TeamID:    r.URL.Query().Get("team_id"),
		ContactID: r.URL.Query().Get("contact_id"),
	}
	filter.Limit, filter.Offset = pageParams(r, 20, 100)

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.ConversationStatus(raw)
		switch status {
		case model.StatusWaiting, model.StatusInProgress, model.StatusClosed:
			filter.Statuses = []model.ConversationStatus{status}
		default:
			writeError(w, fmt.Errorf("%w: unknown status %q", apperrors.ErrBadRequest, raw))
			return
		}
	}
	if r.URL.Query().Get("assigned_to_me") == "true" {
		agentID, err := actor.AgentIDFromContext(ctx)
		if err != nil {
			writeError(w, fmt.Errorf("%w: no acting agent", apperrors.ErrUnauthorized))
			return
		}
		filter.AgentID = agentID
	}

	convs, total, err := s.service.ListConversations(ctx, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: convs, Total: total})
}

// handleGetConversation handles GET /api/v1/conversations/{conversationID}
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.service.GetConversation(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleListMessages handles GET /api/v1/conversations/{conversationID}/messages
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r, 50, 200)
	msgs, err := s.service.ListMessages(r.Context(),
		chi.URLParam(r, "conversationID"),
		r.URL.Query().Get("before_id"),
		limit,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: msgs, Total: int64(len(msgs))})
}

// handleSendText handles POST /api/v1/conversations/{conversationID}/messages
func (s *Server) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	if req.Text == "" {
		writeError(w, fmt.Errorf("%w: text is required", apperrors.ErrValidation))
		return
	}

	msg, err := s.service.SendText(r.Context(), chi.URLParam(r, "conversationID"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleSendMedia handles POST /api/v1/conversations/{conversationID}/media
func (s *Server) handleSendMedia(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MediaType string `json:"media_type"`
		Base64    string `json:"base64"`
		Caption   string `json:"caption"`
		Filename  string `json:"filename"`
		Mimetype  string `json:"mimetype"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	if req.MediaType == "" || req.Base64 == "" {
		writeError(w, fmt.Errorf("%w: media_type and base64 are required", apperrors.ErrValidation))
		return
	}

	msg, err := s.service.SendMedia(r.Context(), chi.URLParam(r, "conversationID"), gateway.MediaAttachment{
		MediaType: req.MediaType,
		Base64:    req.Base64,
		Caption:   req.Caption,
		Filename:  req.Filename,
		Mimetype:  req.Mimetype,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleTransfer handles POST /api/v1/conversations/{conversationID}/transfer
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req usecase.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	if req.TargetTeamID == "" && req.TargetAgentID == "" {
		writeError(w, fmt.Errorf("%w: a target team or agent is required", apperrors.ErrValidation))
		return
	}

	conv, err := s.service.Transfer(r.Context(), chi.URLParam(r, "conversationID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleClose handles POST /api/v1/conversations/{conversationID}/close
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var req usecase.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", apperrors.ErrBadRequest))
		return
	}
	if req.Rating < 0 || req.Rating > 10 {
		writeError(w, fmt.Errorf("%w: rating must be between 1 and 10", apperrors.ErrValidation))
		return
	}

	conv, err := s.service.Close(r.Context(), chi.URLParam(r, "conversationID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleReopen handles POST /api/v1/conversations/{conversationID}/reopen
func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	conv, err := s.service.Reopen(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
