package actor

import (
	"context"
	"errors"
)

// Key for actor values in context
type contextKey string

const (
	agentIDKey   contextKey = "agentID"
	requestIDKey contextKey = "requestID"
)

// ErrAgentIDNotFound is returned when no agent ID is found in context
var ErrAgentIDNotFound = errors.New("agent ID not found in context")

// WithAgentID adds the acting agent's ID to the context
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentIDKey, agentID)
}

// AgentIDFromContext extracts the acting agent's ID from the context
func AgentIDFromContext(ctx context.Context) (string, error) {
	agentID, ok := ctx.Value(agentIDKey).(string)
	if !ok || agentID == "" {
		return "", ErrAgentIDNotFound
	}
	return agentID, nil
}

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}
