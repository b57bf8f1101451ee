package httpapi

import (
	"net/http"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	utils.WriteJSONResponse(w, statusCode, data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps the application error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperrors.IsNotFoundError(err):
		return http.StatusNotFound
	case apperrors.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case apperrors.IsForbiddenError(err):
		return http.StatusForbidden
	case apperrors.IsValidationError(err), apperrors.IsBadRequestError(err), apperrors.IsInvalidTransitionError(err):
		return http.StatusBadRequest
	case apperrors.IsConflictError(err), apperrors.IsDuplicateError(err):
		return http.StatusConflict
	case apperrors.IsGatewayError(err):
		return http.StatusBadGateway
	case apperrors.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
