package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func testCtx(t *testing.T) context.Context {
	return logger.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func TestRouter_DispatchRoutesByNormalizedEventName(t *testing.T) {
	router := NewRouter()

	var gotInstance string
	var gotData json.RawMessage
	router.Register(model.EventMessagesUpsert, func(ctx context.Context, instance string, data json.RawMessage) error {
		gotInstance = instance
		gotData = data
		return nil
	})

	// The gateway sends upper-snake event names; routing normalizes them.
	router.Dispatch(testCtx(t), model.WebhookEnvelope{
		Event:    "MESSAGES_UPSERT",
		Instance: "attendance-main",
		Data:     json.RawMessage(`{"key":{"id":"msg-1"}}`),
	})

	assert.Equal(t, "attendance-main", gotInstance)
	assert.JSONEq(t, `{"key":{"id":"msg-1"}}`, string(gotData))
}

func TestRouter_UnknownEventFallsToDefault(t *testing.T) {
	router := NewRouter()

	var defaultCalled bool
	router.RegisterDefault(func(ctx context.Context, instance string, data json.RawMessage) error {
		defaultCalled = true
		return nil
	})

	router.Dispatch(testCtx(t), model.WebhookEnvelope{Event: "PRESENCE_UPDATE", Instance: "attendance-main"})
	assert.True(t, defaultCalled)
}

func TestRouter_UnknownEventWithoutDefaultIsIgnored(t *testing.T) {
	router := NewRouter()
	assert.NotPanics(t, func() {
		router.Dispatch(testCtx(t), model.WebhookEnvelope{Event: "PRESENCE_UPDATE", Instance: "attendance-main"})
	})
}

func TestRouter_HandlerErrorIsAbsorbed(t *testing.T) {
	router := NewRouter()
	router.Register(model.EventMessagesUpdate, func(ctx context.Context, instance string, data json.RawMessage) error {
		return errors.New("repository unavailable")
	})

	assert.NotPanics(t, func() {
		router.Dispatch(testCtx(t), model.WebhookEnvelope{Event: "messages.update", Instance: "attendance-main"})
	})
}

func TestRouter_HandlerPanicIsAbsorbed(t *testing.T) {
	router := NewRouter()
	router.Register(model.EventMessagesUpsert, func(ctx context.Context, instance string, data json.RawMessage) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		router.Dispatch(testCtx(t), model.WebhookEnvelope{Event: "messages.upsert", Instance: "attendance-main"})
	})
}
