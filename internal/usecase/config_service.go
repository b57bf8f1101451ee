package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/validator"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// ChatbotConfigUpdate carries a partial chatbot configuration change. Nil
// fields are left untouched.
type ChatbotConfigUpdate struct {
	IsActive             *bool                `json:"is_active"`
	WelcomeMessage       *string              `json:"welcome_message"`
	MenuMessage          *string              `json:"menu_message"`
	InvalidOptionMessage *string              `json:"invalid_option_message"`
	QueueMessage         *string              `json:"queue_message"`
	RatingRequestMessage *string              `json:"rating_request_message"`
	RatingThanksMessage  *string              `json:"rating_thanks_message"`
	OfflineMessage       *string              `json:"offline_message"`
	MenuOptions          []model.MenuOption   `json:"menu_options"`
	BusinessHours        *model.BusinessHours `json:"business_hours"`
}

// GetChatbotConfig returns the chatbot configuration, creating the default
// row on first read.
func (s *AttendanceService) GetChatbotConfig(ctx context.Context) (*model.ChatbotConfig, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	return s.botConfigRepo.GetOrCreate(ctx)
}

// UpdateChatbotConfig applies a partial configuration change.
func (s *AttendanceService) UpdateChatbotConfig(ctx context.Context, update ChatbotConfigUpdate) (*model.ChatbotConfig, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": utils.Now()}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.WelcomeMessage != nil {
		fields["welcome_message"] = *update.WelcomeMessage
	}
	if update.MenuMessage != nil {
		fields["menu_message"] = *update.MenuMessage
	}
	if update.InvalidOptionMessage != nil {
		fields["invalid_option_message"] = *update.InvalidOptionMessage
	}
	if update.QueueMessage != nil {
		fields["queue_message"] = *update.QueueMessage
	}
	if update.RatingRequestMessage != nil {
		fields["rating_request_message"] = *update.RatingRequestMessage
	}
	if update.RatingThanksMessage != nil {
		fields["rating_thanks_message"] = *update.RatingThanksMessage
	}
	if update.OfflineMessage != nil {
		fields["offline_message"] = *update.OfflineMessage
	}
	if update.MenuOptions != nil {
		for i, opt := range update.MenuOptions {
			if opt.Option == "" {
				return nil, fmt.Errorf("%w: menu option %d has no option code", apperrors.ErrValidation, i)
			}
		}
		raw, err := json.Marshal(update.MenuOptions)
		if err != nil {
			return nil, apperrors.NewFatal(err, "failed to encode menu options")
		}
		fields["menu_options"] = raw
	}
	if update.BusinessHours != nil {
		raw, err := json.Marshal(update.BusinessHours)
		if err != nil {
			return nil, apperrors.NewFatal(err, "failed to encode business hours")
		}
		fields["business_hours"] = raw
	}

	cfg, err := s.botConfigRepo.Update(ctx, fields)
	if err != nil {
		return nil, err
	}

	log.Info("Chatbot configuration updated", zap.String("by_agent_id", agent.ID))
	return cfg, nil
}

// ListQuickReplies returns the canned replies visible to the acting agent:
// global entries plus the ones scoped to the agent's teams.
func (s *AttendanceService) ListQuickReplies(ctx context.Context) ([]model.QuickReply, error) {
	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	return s.quickReplyRepo.List(ctx, agent.TeamIDs)
}

// CreateQuickReply stores a new canned reply owned by the acting agent.
func (s *AttendanceService) CreateQuickReply(ctx context.Context, reply model.QuickReply) (*model.QuickReply, error) {
	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(reply); err != nil {
		return nil, apperrors.NewFatal(err, "quick reply validation failed")
	}

	reply.ID = uuid.New().String()
	reply.CreatedByID = agent.ID
	reply.IsActive = true
	if err := s.quickReplyRepo.Save(ctx, reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteQuickReply removes a canned reply.
func (s *AttendanceService) DeleteQuickReply(ctx context.Context, id string) error {
	if _, err := s.requireAgent(ctx); err != nil {
		return err
	}
	return s.quickReplyRepo.Delete(ctx, id)
}

// ListClassifications returns the closing labels.
func (s *AttendanceService) ListClassifications(ctx context.Context, includeInactive bool) ([]model.Classification, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	return s.classificationRepo.List(ctx, includeInactive)
}

// CreateClassification stores a new closing label.
func (s *AttendanceService) CreateClassification(ctx context.Context, classification model.Classification) (*model.Classification, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	if err := validator.Validate(classification); err != nil {
		return nil, apperrors.NewFatal(err, "classification validation failed")
	}

	classification.ID = uuid.New().String()
	classification.IsActive = true
	if err := s.classificationRepo.Save(ctx, classification); err != nil {
		return nil, err
	}
	return &classification, nil
}

// DeactivateClassification retires a closing label without touching past
// conversations that reference it.
func (s *AttendanceService) DeactivateClassification(ctx context.Context, id string) error {
	if _, err := s.requireAgent(ctx); err != nil {
		return err
	}
	return s.classificationRepo.Deactivate(ctx, id)
}

// ListTeams returns the attendance queue targets.
func (s *AttendanceService) ListTeams(ctx context.Context) ([]model.Team, error) {
	if _, err := s.requireAgent(ctx); err != nil {
		return nil, err
	}
	return s.directoryRepo.ListTeams(ctx)
}
