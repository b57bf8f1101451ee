package gateway

import (
	"fmt"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
)

// Error describes a failed gateway API call. It unwraps to
// apperrors.ErrGateway so callers can branch with errors.Is.
type Error struct {
	StatusCode int
	Operation  string
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return apperrors.ErrGateway
}
