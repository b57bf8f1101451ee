package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/ingestion"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// WebhookServiceMock is a testify mock of the ingestion service surface.
type WebhookServiceMock struct {
	mock.Mock
}

func (m *WebhookServiceMock) ProcessMessageUpsert(ctx context.Context, instanceName string, payload model.MessageUpsertPayload) error {
	args := m.Called(ctx, instanceName, payload)
	return args.Error(0)
}

func (m *WebhookServiceMock) ProcessMessageUpdate(ctx context.Context, instanceName string, payload model.MessageUpdatePayload) error {
	args := m.Called(ctx, instanceName, payload)
	return args.Error(0)
}

func (m *WebhookServiceMock) ProcessConnectionUpdate(ctx context.Context, instanceName string, payload model.ConnectionUpdatePayload) error {
	args := m.Called(ctx, instanceName, payload)
	return args.Error(0)
}

func (m *WebhookServiceMock) ProcessQRCodeUpdated(ctx context.Context, instanceName string, payload model.QRCodeUpdatedPayload) error {
	args := m.Called(ctx, instanceName, payload)
	return args.Error(0)
}

func (m *WebhookServiceMock) ProcessContactsUpsert(ctx context.Context, instanceName string, contacts []model.ContactUpsertPayload) error {
	args := m.Called(ctx, instanceName, contacts)
	return args.Error(0)
}

func testCtx(t *testing.T) context.Context {
	return logger.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func dispatch(t *testing.T, service *WebhookServiceMock, event, data string) {
	t.Helper()
	router := ingestion.NewRouter()
	NewWebhookHandler(service).RegisterRoutes(router)
	router.Dispatch(testCtx(t), model.WebhookEnvelope{
		Event:    event,
		Instance: "attendance-main",
		Data:     json.RawMessage(data),
	})
}

func TestWebhookHandler_MessagesUpsert(t *testing.T) {
	service := new(WebhookServiceMock)
	service.On("ProcessMessageUpsert", mock.Anything, "attendance-main", mock.MatchedBy(func(p model.MessageUpsertPayload) bool {
		return p.Key.ID == "msg-1" && p.Key.RemoteJID == "5511999990000@s.whatsapp.net" && !p.Key.FromMe
	})).Return(nil)

	dispatch(t, service, "messages.upsert",
		`{"key":{"remoteJid":"5511999990000@s.whatsapp.net","fromMe":false,"id":"msg-1"},"pushName":"Maria","message":{"conversation":"oi"},"messageTimestamp":1767225600}`)

	service.AssertExpectations(t)
}

func TestWebhookHandler_MessagesUpdate(t *testing.T) {
	service := new(WebhookServiceMock)
	service.On("ProcessMessageUpdate", mock.Anything, "attendance-main", mock.MatchedBy(func(p model.MessageUpdatePayload) bool {
		return p.Key.ID == "msg-1" && p.Status == 3
	})).Return(nil)

	dispatch(t, service, "MESSAGES_UPDATE", `{"key":{"id":"msg-1"},"status":3}`)
	service.AssertExpectations(t)
}

func TestWebhookHandler_ContactsUpsertAcceptsBothShapes(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		service := new(WebhookServiceMock)
		service.On("ProcessContactsUpsert", mock.Anything, "attendance-main", mock.MatchedBy(func(contacts []model.ContactUpsertPayload) bool {
			return len(contacts) == 2
		})).Return(nil)

		dispatch(t, service, "contacts.upsert",
			`[{"remoteJid":"111@s.whatsapp.net","pushName":"A"},{"id":"222@s.whatsapp.net","pushName":"B"}]`)
		service.AssertExpectations(t)
	})

	t.Run("single object", func(t *testing.T) {
		service := new(WebhookServiceMock)
		service.On("ProcessContactsUpsert", mock.Anything, "attendance-main", mock.MatchedBy(func(contacts []model.ContactUpsertPayload) bool {
			return len(contacts) == 1 && contacts[0].JID() == "111@s.whatsapp.net"
		})).Return(nil)

		dispatch(t, service, "contacts.upsert", `{"remoteJid":"111@s.whatsapp.net","pushName":"A"}`)
		service.AssertExpectations(t)
	})
}

func TestWebhookHandler_MalformedPayloadNeverReachesService(t *testing.T) {
	service := new(WebhookServiceMock)

	assert.NotPanics(t, func() {
		dispatch(t, service, "messages.upsert", `"not an object"`)
	})
	service.AssertNotCalled(t, "ProcessMessageUpsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_MalformedPayloadErrorIsFatal(t *testing.T) {
	h := NewWebhookHandler(new(WebhookServiceMock))

	err := h.handleMessagesUpsert(testCtx(t), "attendance-main", json.RawMessage(`"nope"`))
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestWebhookHandler_UnknownEventAcknowledged(t *testing.T) {
	service := new(WebhookServiceMock)

	assert.NotPanics(t, func() {
		dispatch(t, service, "presence.update", `{}`)
	})
	service.AssertNotCalled(t, "ProcessMessageUpsert", mock.Anything, mock.Anything, mock.Anything)
}
