package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// ProvisionInstanceRequest describes a new WhatsApp session to create.
type ProvisionInstanceRequest struct {
	InstanceName string `json:"instance_name" validate:"required"`
	Integration  string `json:"integration"`
	Number       string `json:"number"`
	Token        string `json:"token"`
	WebhookURL   string `json:"-"`
}

// ProvisionInstance creates a WhatsApp session on the gateway and records it
// locally. The webhook subscription is registered at creation time.
func (s *AttendanceService) ProvisionInstance(ctx context.Context, req ProvisionInstanceRequest) (*model.GatewayInstance, error) {
	log := logger.FromContext(ctx)

	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.InstanceName) == "" {
		return nil, fmt.Errorf("%w: instance name is required", apperrors.ErrValidation)
	}
	if req.Integration == "" {
		req.Integration = "WHATSAPP-BAILEYS"
	}

	result, err := s.gateway.CreateInstance(ctx, gateway.CreateInstanceRequest{
		InstanceName: req.InstanceName,
		Integration:  req.Integration,
		WebhookURL:   req.WebhookURL,
		Token:        req.Token,
		Number:       req.Number,
	})
	if err != nil {
		return nil, apperrors.NewRetryable(err, "gateway instance creation failed")
	}

	instance := model.GatewayInstance{
		InstanceName:     req.InstanceName,
		InstanceID:       result.InstanceID,
		APIKey:           result.APIKey,
		IntegrationType:  req.Integration,
		ConnectionStatus: model.InstanceDisconnected,
		PhoneNumber:      utils.NormalizePhoneNumber(req.Number),
		QRCodeBase64:     result.QRCodeBase64,
		IsActive:         true,
	}
	if instance.QRCodeBase64 != "" {
		instance.ConnectionStatus = model.InstanceQRCode
	}
	if err := s.instanceRepo.Save(ctx, instance); err != nil {
		return nil, err
	}

	log.Info("Instance provisioned",
		zap.String("instance", req.InstanceName),
		zap.String("integration", req.Integration),
	)
	return &instance, nil
}

// ConnectInstance asks the gateway for a fresh pairing QR code.
func (s *AttendanceService) ConnectInstance(ctx context.Context, instanceName string) (*gateway.QRCodeResult, error) {
	log := logger.FromContext(ctx)

	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	if _, err := s.instanceRepo.FindByName(ctx, instanceName); err != nil {
		return nil, err
	}

	qr, err := s.gateway.ConnectInstance(ctx, instanceName)
	if err != nil {
		return nil, apperrors.NewRetryable(err, "gateway connect failed for instance %s", instanceName)
	}
	if qr.Base64 != "" {
		if err := s.instanceRepo.Update(ctx, instanceName, map[string]interface{}{
			"qr_code_base64":    qr.Base64,
			"connection_status": model.InstanceQRCode,
			"updated_at":        utils.Now(),
		}); err != nil {
			log.Warn("Failed to store pairing QR", zap.Error(err))
		}
	}
	return qr, nil
}

// GetInstanceStatus reads the live connection state from the gateway and
// reconciles the stored row with it.
func (s *AttendanceService) GetInstanceStatus(ctx context.Context, instanceName string) (*model.GatewayInstance, error) {
	log := logger.FromContext(ctx)

	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	instance, err := s.instanceRepo.FindByName(ctx, instanceName)
	if err != nil {
		return nil, err
	}

	state, err := s.gateway.GetConnectionState(ctx, instanceName)
	if err != nil {
		// The stored status is the best answer while the gateway is down.
		log.Warn("Failed to read live connection state",
			zap.String("instance", instanceName),
			zap.Error(err),
		)
		return instance, nil
	}

	if status, ok := model.MapConnectionState(state); ok && status != instance.ConnectionStatus {
		fields := map[string]interface{}{
			"connection_status": status,
			"updated_at":        utils.Now(),
		}
		if status == model.InstanceConnected {
			fields["qr_code_base64"] = ""
		}
		if err := s.instanceRepo.Update(ctx, instanceName, fields); err != nil {
			log.Warn("Failed to reconcile instance status", zap.Error(err))
		} else {
			instance.ConnectionStatus = status
		}
	}
	return instance, nil
}

// ListInstances returns all active gateway instances.
func (s *AttendanceService) ListInstances(ctx context.Context) ([]model.GatewayInstance, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	return s.instanceRepo.ListActive(ctx)
}

// RestartInstance bounces the gateway session.
func (s *AttendanceService) RestartInstance(ctx context.Context, instanceName string) error {
	if _, err := s.requireAgent(ctx); err != nil {
		return err
	}
	if _, err := s.instanceRepo.FindByName(ctx, instanceName); err != nil {
		return err
	}
	if err := s.gateway.RestartInstance(ctx, instanceName); err != nil {
		return apperrors.NewRetryable(err, "gateway restart failed for instance %s", instanceName)
	}
	return nil
}

// LogoutInstance ends the WhatsApp session but keeps the instance record.
func (s *AttendanceService) LogoutInstance(ctx context.Context, instanceName string) error {
	log := logger.FromContext(ctx)

	if _, err := s.requireAgent(ctx); err != nil {
		return err
	}
	if _, err := s.instanceRepo.FindByName(ctx, instanceName); err != nil {
		return err
	}
	if err := s.gateway.LogoutInstance(ctx, instanceName); err != nil {
		return apperrors.NewRetryable(err, "gateway logout failed for instance %s", instanceName)
	}
	if err := s.instanceRepo.Update(ctx, instanceName, map[string]interface{}{
		"connection_status": model.InstanceDisconnected,
		"qr_code_base64":    "",
		"updated_at":        utils.Now(),
	}); err != nil {
		log.Warn("Failed to record logout", zap.Error(err))
	}
	return nil
}

// RemoveInstance deletes the session on the gateway and the local record.
func (s *AttendanceService) RemoveInstance(ctx context.Context, instanceName string) error {
	log := logger.FromContext(ctx)

	if _, err := s.requireAgent(ctx); err != nil {
		return err
	}
	if _, err := s.instanceRepo.FindByName(ctx, instanceName); err != nil {
		return err
	}
	if err := s.gateway.DeleteInstance(ctx, instanceName); err != nil {
		// A gateway-side miss still lets the local record go.
		if !apperrors.IsGatewayError(err) {
			return apperrors.NewRetryable(err, "gateway delete failed for instance %s", instanceName)
		}
		log.Warn("Gateway delete failed, removing local record anyway",
			zap.String("instance", instanceName),
			zap.Error(err),
		)
	}
	if err := s.instanceRepo.Delete(ctx, instanceName); err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, events.SubjectInstanceUpdated, map[string]interface{}{
		"instance_name": instanceName,
		"deleted":       true,
	}); err != nil {
		log.Warn("Failed to publish instance event", zap.Error(err))
	}
	return nil
}
