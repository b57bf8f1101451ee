package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/ingestion"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

// WebhookService defines the ingestion operations behind the webhook.
type WebhookService interface {
	ProcessMessageUpsert(ctx context.Context, instanceName string, payload model.MessageUpsertPayload) error
	ProcessMessageUpdate(ctx context.Context, instanceName string, payload model.MessageUpdatePayload) error
	ProcessConnectionUpdate(ctx context.Context, instanceName string, payload model.ConnectionUpdatePayload) error
	ProcessQRCodeUpdated(ctx context.Context, instanceName string, payload model.QRCodeUpdatedPayload) error
	ProcessContactsUpsert(ctx context.Context, instanceName string, contacts []model.ContactUpsertPayload) error
}

// WebhookHandler decodes gateway webhook payloads and hands them to the
// attendance service.
type WebhookHandler struct {
	service WebhookService
}

// NewWebhookHandler creates a new webhook event handler
func NewWebhookHandler(service WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// RegisterRoutes binds every supported event kind on the router.
func (h *WebhookHandler) RegisterRoutes(router ingestion.RouterInterface) {
	router.Register(model.EventMessagesUpsert, h.handleMessagesUpsert)
	router.Register(model.EventMessagesUpdate, h.handleMessagesUpdate)
	router.Register(model.EventConnectionUpdate, h.handleConnectionUpdate)
	router.Register(model.EventQRCodeUpdated, h.handleQRCodeUpdated)
	router.Register(model.EventContactsUpsert, h.handleContactsUpsert)
	router.RegisterDefault(func(ctx context.Context, instance string, data json.RawMessage) error {
		logger.FromContext(ctx).Debug("Acknowledged unhandled webhook event")
		return nil
	})
}

func (h *WebhookHandler) handleMessagesUpsert(ctx context.Context, instance string, data json.RawMessage) error {
	var payload model.MessageUpsertPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.FromContext(ctx).Error("Failed to decode message upsert payload", zap.Error(err))
		return apperrors.NewFatal(err, "malformed message upsert payload")
	}
	return h.service.ProcessMessageUpsert(ctx, instance, payload)
}

func (h *WebhookHandler) handleMessagesUpdate(ctx context.Context, instance string, data json.RawMessage) error {
	var payload model.MessageUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.FromContext(ctx).Error("Failed to decode message update payload", zap.Error(err))
		return apperrors.NewFatal(err, "malformed message update payload")
	}
	return h.service.ProcessMessageUpdate(ctx, instance, payload)
}

func (h *WebhookHandler) handleConnectionUpdate(ctx context.Context, instance string, data json.RawMessage) error {
	var payload model.ConnectionUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.FromContext(ctx).Error("Failed to decode connection update payload", zap.Error(err))
		return apperrors.NewFatal(err, "malformed connection update payload")
	}
	return h.service.ProcessConnectionUpdate(ctx, instance, payload)
}

func (h *WebhookHandler) handleQRCodeUpdated(ctx context.Context, instance string, data json.RawMessage) error {
	var payload model.QRCodeUpdatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.FromContext(ctx).Error("Failed to decode qrcode payload", zap.Error(err))
		return apperrors.NewFatal(err, "malformed qrcode payload")
	}
	return h.service.ProcessQRCodeUpdated(ctx, instance, payload)
}

func (h *WebhookHandler) handleContactsUpsert(ctx context.Context, instance string, data json.RawMessage) error {
	contacts, err := model.DecodeContactsUpsert(data)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to decode contacts upsert payload", zap.Error(err))
		return apperrors.NewFatal(err, "malformed contacts upsert payload")
	}
	return h.service.ProcessContactsUpsert(ctx, instance, contacts)
}
