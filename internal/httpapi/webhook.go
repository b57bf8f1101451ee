package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

// handleWebhook ingests one gateway event. The gateway treats anything but
// 2xx as a delivery failure and retries, so the endpoint acknowledges every
// syntactically valid envelope; processing failures are logged and absorbed
// inside the router.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var envelope model.WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		logger.FromContext(r.Context()).Warn("Malformed webhook envelope", zap.Error(err))
		// Still acknowledged: retrying a body that does not parse cannot help.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if envelope.Event == "" {
		logger.FromContext(r.Context()).Warn("Webhook envelope without event name")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	s.eventRouter.Dispatch(r.Context(), envelope)
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
