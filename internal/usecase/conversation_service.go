package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// TransferRequest moves a conversation to another queue or agent.
type TransferRequest struct {
	TargetTeamID  string `json:"target_team_id"`
	TargetAgentID string `json:"target_agent_id"`
}

// CloseRequest carries the closing metadata of a conversation.
type CloseRequest struct {
	Classification string `json:"classification"`
	Rating         int    `json:"rating" validate:"omitempty,min=1,max=10"`
	ClosingComment string `json:"closing_comment"`
}

// ListConversations returns the page of conversations the acting agent may
// see. The filter page is loaded first, then the visibility predicate trims
// it; the returned total counts unfiltered matches.
func (s *AttendanceService) ListConversations(ctx context.Context, filter storage.ConversationFilter) ([]model.Conversation, int64, error) {
	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, 0, err
	}

	convs, total, err := s.conversationRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return FilterVisible(convs, *agent), total, nil
}

// GetConversation loads one conversation the acting agent may see.
func (s *AttendanceService) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversationRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !Visible(*conv, *agent) {
		return nil, fmt.Errorf("%w: conversation %s", apperrors.ErrForbidden, conversationID)
	}
	return conv, nil
}

// ListMessages returns a page of a conversation's history, newest first.
// beforeMessageID is the paging cursor.
func (s *AttendanceService) ListMessages(ctx context.Context, conversationID, beforeMessageID string, limit int) ([]model.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByConversation(ctx, conversationID, beforeMessageID, limit)
}

// SendText delivers an agent-authored text to the contact. A first send on
// a waiting conversation claims it for the sender.
func (s *AttendanceService) SendText(ctx context.Context, conversationID, text string) (*model.Message, error) {
	return s.send(ctx, conversationID, text, nil)
}

// SendMedia delivers an agent-authored media message to the contact.
func (s *AttendanceService) SendMedia(ctx context.Context, conversationID string, media gateway.MediaAttachment) (*model.Message, error) {
	return s.send(ctx, conversationID, media.Caption, &media)
}

func (s *AttendanceService) send(ctx context.Context, conversationID, text string, media *gateway.MediaAttachment) (*model.Message, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversationRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !Visible(*conv, *agent) {
		return nil, fmt.Errorf("%w: conversation %s", apperrors.ErrForbidden, conversationID)
	}
	if conv.Status == model.StatusClosed {
		return nil, fmt.Errorf("%w: conversation %s is closed", apperrors.ErrInvalidTransition, conversationID)
	}

	instanceName := s.instanceFor(conv)
	instance, err := s.instanceRepo.FindByName(ctx, instanceName)
	if err != nil {
		return nil, err
	}
	if instance.ConnectionStatus != model.InstanceConnected {
		return nil, fmt.Errorf("%w: instance %s is not connected", apperrors.ErrGateway, instanceName)
	}

	contact, err := s.contactRepo.FindByID(ctx, conv.ContactID)
	if err != nil {
		return nil, err
	}

	var result *gateway.SendResult
	if media != nil {
		result, err = s.gateway.SendMedia(ctx, instanceName, contact.PhoneNumber, *media)
	} else {
		result, err = s.gateway.SendText(ctx, instanceName, contact.PhoneNumber, text)
	}
	if err != nil {
		return nil, apperrors.NewRetryable(err, "gateway send failed for conversation %s", conversationID)
	}

	messageID := result.MessageID
	if messageID == "" {
		messageID = uuid.New().String()
	}

	msg := model.Message{
		MessageID:      messageID,
		ConversationID: conv.ConversationID,
		RemoteJID:      contact.RemoteJID,
		FromMe:         true,
		SenderAgentID:  agent.ID,
		Kind:           model.MessageKindText,
		Content:        text,
		Status:         model.DeliverySent,
		Timestamp:      utils.Now(),
	}
	if media != nil {
		msg.Kind = media.MediaType
		msg.Mimetype = media.Mimetype
		msg.Filename = media.Filename
	}
	if _, err := s.messageRepo.InsertIgnoreDuplicate(ctx, msg); err != nil {
		// The message already left the device; keep the send successful and
		// surface only the bookkeeping gap.
		log.Error("Outbound message sent but not recorded",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	if conv.Status == model.StatusWaiting {
		fields := map[string]interface{}{
			"status":            string(model.StatusInProgress),
			"assigned_agent_id": agent.ID,
			"first_response_at": utils.Now(),
			"bot_state":         string(model.BotStateWithAgent),
		}
		expect := storage.ConversationExpectation{Status: model.StatusWaiting}
		if err := s.conversationRepo.UpdateIf(ctx, conv.ConversationID, expect, fields); err != nil {
			if apperrors.IsConflictError(err) {
				log.Debug("Conversation claimed concurrently, send still delivered",
					zap.String("conversation_id", conv.ConversationID),
				)
			} else {
				log.Error("Failed to claim conversation after send", zap.Error(err))
			}
		}
	}

	if err := s.conversationRepo.TouchLastMessage(ctx, conv.ConversationID); err != nil {
		log.Warn("Failed to touch conversation after send", zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.SubjectConversationUpdated, conv); err != nil {
		log.Warn("Failed to publish conversation event", zap.Error(err))
	}
	return &msg, nil
}

// Transfer moves a conversation to another team or agent. Handing it to an
// agent puts it in progress; handing it to a bare team sends it back to the
// waiting queue.
func (s *AttendanceService) Transfer(ctx context.Context, conversationID string, req TransferRequest) (*model.Conversation, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversationRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !Visible(*conv, *agent) {
		return nil, fmt.Errorf("%w: conversation %s", apperrors.ErrForbidden, conversationID)
	}
	if conv.Status == model.StatusClosed {
		return nil, fmt.Errorf("%w: cannot transfer a closed conversation", apperrors.ErrInvalidTransition)
	}

	status := model.StatusWaiting
	if req.TargetAgentID != "" {
		status = model.StatusInProgress
	}
	fields := map[string]interface{}{
		"team_id":           req.TargetTeamID,
		"assigned_agent_id": req.TargetAgentID,
		"status":            string(status),
	}
	expect := storage.ConversationExpectation{Status: conv.Status}
	if err := s.conversationRepo.UpdateIf(ctx, conv.ConversationID, expect, fields); err != nil {
		return nil, err
	}

	log.Info("Conversation transferred",
		zap.String("conversation_id", conversationID),
		zap.String("target_team_id", req.TargetTeamID),
		zap.String("target_agent_id", req.TargetAgentID),
		zap.String("by_agent_id", agent.ID),
	)
	if err := s.publisher.Publish(ctx, events.SubjectConversationUpdated, map[string]interface{}{
		"conversation_id": conversationID,
		"status":          status,
		"team_id":         req.TargetTeamID,
	}); err != nil {
		log.Warn("Failed to publish conversation event", zap.Error(err))
	}
	return s.conversationRepo.FindByConversationID(ctx, conversationID)
}

// Close ends a conversation and records its closing metadata. With an
// active chatbot the contact is asked for a rating first; if that send
// fails the conversation still closes, just without the rating round.
func (s *AttendanceService) Close(ctx context.Context, conversationID string, req CloseRequest) (*model.Conversation, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversationRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !Visible(*conv, *agent) {
		return nil, fmt.Errorf("%w: conversation %s", apperrors.ErrForbidden, conversationID)
	}
	if conv.Status == model.StatusClosed {
		return nil, fmt.Errorf("%w: conversation %s is already closed", apperrors.ErrInvalidTransition, conversationID)
	}

	botState := model.BotStateFinished
	cfg, cfgErr := s.botConfigRepo.GetOrCreate(ctx)
	if cfgErr != nil {
		log.Warn("Failed to load chatbot configuration on close", zap.Error(cfgErr))
	}
	if cfgErr == nil && cfg.IsActive {
		contact, contactErr := s.contactRepo.FindByID(ctx, conv.ContactID)
		if contactErr != nil {
			log.Warn("Failed to load contact for rating request", zap.Error(contactErr))
		} else {
			instanceName := s.instanceFor(conv)
			result, sendErr := s.gateway.SendText(ctx, instanceName, contact.PhoneNumber, cfg.RatingRequestMessage)
			if sendErr != nil {
				log.Warn("Rating request send failed, closing without rating round",
					zap.String("conversation_id", conversationID),
					zap.Error(sendErr),
				)
			} else {
				botState = model.BotStateRating
				messageID := result.MessageID
				if messageID == "" {
					messageID = uuid.New().String()
				}
				outbound := model.Message{
					MessageID:      messageID,
					ConversationID: conv.ConversationID,
					RemoteJID:      contact.RemoteJID,
					FromMe:         true,
					Kind:           model.MessageKindText,
					Content:        cfg.RatingRequestMessage,
					Status:         model.DeliverySent,
					Timestamp:      utils.Now(),
				}
				if _, err := s.messageRepo.InsertIgnoreDuplicate(ctx, outbound); err != nil {
					log.Error("Failed to record rating request message", zap.Error(err))
				}
			}
		}
	}

	now := utils.Now()
	fields := map[string]interface{}{
		"status":          string(model.StatusClosed),
		"bot_state":       string(botState),
		"classification":  req.Classification,
		"closing_comment": req.ClosingComment,
		"closed_by_id":    agent.ID,
		"closed_at":       now,
	}
	if req.Rating > 0 {
		fields["rating"] = req.Rating
	}
	expect := storage.ConversationExpectation{Status: conv.Status}
	if err := s.conversationRepo.UpdateIf(ctx, conv.ConversationID, expect, fields); err != nil {
		return nil, err
	}

	log.Info("Conversation closed",
		zap.String("conversation_id", conversationID),
		zap.String("protocol", conv.Protocol),
		zap.String("bot_state", string(botState)),
		zap.String("closed_by", agent.ID),
	)
	if err := s.publisher.Publish(ctx, events.SubjectConversationUpdated, map[string]interface{}{
		"conversation_id": conversationID,
		"status":          model.StatusClosed,
	}); err != nil {
		log.Warn("Failed to publish conversation event", zap.Error(err))
	}
	return s.conversationRepo.FindByConversationID(ctx, conversationID)
}

// Reopen puts a closed conversation back in progress, assigned to the
// requesting agent. The contact's single active slot must still be free.
func (s *AttendanceService) Reopen(ctx context.Context, conversationID string) (*model.Conversation, error) {
	log := logger.FromContext(ctx)

	agent, err := s.requireAgent(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.conversationRepo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !Visible(*conv, *agent) {
		return nil, fmt.Errorf("%w: conversation %s", apperrors.ErrForbidden, conversationID)
	}
	if conv.Status != model.StatusClosed {
		return nil, fmt.Errorf("%w: conversation %s is not closed", apperrors.ErrInvalidTransition, conversationID)
	}

	if active, err := s.conversationRepo.FindActiveByContactID(ctx, conv.ContactID); err == nil {
		return nil, fmt.Errorf("%w: contact already has active conversation %s", apperrors.ErrConflict, active.ConversationID)
	} else if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	fields := map[string]interface{}{
		"status":            string(model.StatusInProgress),
		"assigned_agent_id": agent.ID,
		"bot_state":         string(model.BotStateWithAgent),
		"closed_at":         nil,
		"closed_by_id":      "",
	}
	expect := storage.ConversationExpectation{Status: model.StatusClosed}
	if err := s.conversationRepo.UpdateIf(ctx, conv.ConversationID, expect, fields); err != nil {
		return nil, err
	}

	log.Info("Conversation reopened",
		zap.String("conversation_id", conversationID),
		zap.String("by_agent_id", agent.ID),
	)
	if err := s.publisher.Publish(ctx, events.SubjectConversationUpdated, map[string]interface{}{
		"conversation_id": conversationID,
		"status":          model.StatusInProgress,
	}); err != nil {
		log.Warn("Failed to publish conversation event", zap.Error(err))
	}
	return s.conversationRepo.FindByConversationID(ctx, conversationID)
}
