package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/actor"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

// agentIDHeader carries the acting agent's identity, injected by the ERP's
// authenticating reverse proxy. The directory lookup that validates it
// happens inside the service layer.
const agentIDHeader = "X-Agent-Id"

// requestID tags every request with an ID and a request-scoped logger.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := actor.WithRequestID(r.Context(), id)
		ctx = logger.WithLogger(ctx, logger.Log.With(zap.String("request_id", id)))
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAgentHeader rejects agent-facing requests that carry no identity.
func requireAgentHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentID := r.Header.Get(agentIDHeader)
		if agentID == "" {
			writeError(w, fmt.Errorf("%w: missing %s header", apperrors.ErrUnauthorized, agentIDHeader))
			return
		}
		next.ServeHTTP(w, r.WithContext(actor.WithAgentID(r.Context(), agentID)))
	})
}

// accessLog writes one line per finished request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		logger.FromContext(r.Context()).Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	})
}
