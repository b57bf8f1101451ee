package usecase

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// ListContacts returns a page of the contact directory, optionally filtered
// by a search term.
func (s *AttendanceService) ListContacts(ctx context.Context, search string, limit, offset int) ([]model.Contact, int64, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, 0, err
	}
	return s.contactRepo.List(ctx, search, limit, offset)
}

// GetContact loads one contact by its internal ID.
func (s *AttendanceService) GetContact(ctx context.Context, contactID string) (*model.Contact, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	return s.contactRepo.FindByID(ctx, contactID)
}

// RenameContact sets the operator-edited display name. An empty name drops
// the override so the gateway-reported name shows again.
func (s *AttendanceService) RenameContact(ctx context.Context, contactID, customName string) (*model.Contact, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.contactRepo.Update(ctx, contactID, map[string]interface{}{
		"custom_name": customName,
		"updated_at":  utils.Now(),
	}); err != nil {
		return nil, err
	}

	log.Info("Contact renamed",
		zap.String("contact_id", contactID),
		zap.String("by_agent_id", agent.ID),
	)
	return s.contactRepo.FindByID(ctx, contactID)
}
