package ingestion

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// EventHandler defines a function that processes one webhook event
type EventHandler func(ctx context.Context, instance string, data json.RawMessage) error

// RouterInterface is the dispatch surface consumed by the webhook endpoint.
type RouterInterface interface {
	Register(eventType model.EventType, handler EventHandler)
	RegisterDefault(handler EventHandler)
	Dispatch(ctx context.Context, envelope model.WebhookEnvelope)
}

// Router routes webhook events to the appropriate handler based on the
// normalized event name.
type Router struct {
	handlers       map[model.EventType]EventHandler
	defaultHandler EventHandler
}

var _ RouterInterface = (*Router)(nil)

// NewRouter creates a new event router
func NewRouter() *Router {
	return &Router{
		handlers: make(map[model.EventType]EventHandler),
	}
}

// Register registers a handler for an event type
func (r *Router) Register(eventType model.EventType, handler EventHandler) {
	r.handlers[eventType] = handler
}

// RegisterDefault registers a handler for unrecognized event names.
func (r *Router) RegisterDefault(handler EventHandler) {
	r.defaultHandler = handler
}

// Dispatch routes one webhook envelope. The gateway retries deliveries it
// considers failed, so every event is acknowledged upstream no matter what
// happens here: handler errors and panics are logged and absorbed.
func (r *Router) Dispatch(ctx context.Context, envelope model.WebhookEnvelope) {
	log := logger.FromContext(ctx).With(
		zap.String("event", envelope.Event),
		zap.String("instance", envelope.Instance),
	)
	ctx = logger.WithLogger(ctx, log)

	eventType, found := model.MapToEventType(envelope.Event)
	observer.IncWebhookEventsReceived(string(eventType), envelope.Instance)

	handler := r.handlers[eventType]
	if !found || handler == nil {
		if r.defaultHandler != nil {
			if err := r.defaultHandler(ctx, envelope.Instance, envelope.Data); err != nil {
				log.Warn("Default webhook handler failed", zap.Error(err))
			}
			return
		}
		log.Debug("Ignoring unhandled webhook event")
		return
	}

	start := time.Now()
	err := r.invoke(ctx, handler, envelope)
	observer.ObserveWebhookProcessingDuration(string(eventType), envelope.Instance, time.Since(start))

	if err != nil {
		log.Error("Webhook event processing failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		observer.IncWebhookEventsFailed(string(eventType), envelope.Instance, observer.SanitizeErrorType(err.Error()))
		return
	}

	log.Debug("Webhook event processed", zap.Duration("duration", time.Since(start)))
	observer.IncWebhookEventsProcessed(string(eventType), envelope.Instance)
}

// invoke runs one handler behind a panic boundary. A recovered panic
// surfaces as a handler error and counts as a failed event.
func (r *Router) invoke(ctx context.Context, handler EventHandler, envelope model.WebhookEnvelope) error {
	return utils.WrapWithContextRecovery(func(ctx context.Context) error {
		return handler(ctx, envelope.Instance, envelope.Data)
	})(ctx)
}
