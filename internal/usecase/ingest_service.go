package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/validator"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// ProcessMessageUpsert ingests one message event from the gateway: contact
// upsert, conversation resolution, message insert, then the chatbot advance
// for inbound messages. Redelivered events with a known message ID stop
// after the duplicate check.
func (s *AttendanceService) ProcessMessageUpsert(ctx context.Context, instanceName string, payload model.MessageUpsertPayload) error {
	log := logger.FromContext(ctx)

	jid := payload.Key.RemoteJID
	if jid == "" || utils.IsGroupJID(jid) {
		log.Debug("Skipping message from group or empty JID", zap.String("remote_jid", jid))
		return nil
	}

	if err := validator.Validate(payload); err != nil {
		log.Error("Message upsert validation failed",
			zap.String("message_id", payload.Key.ID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "message upsert validation failed")
	}

	seenAt := utils.Now()
	switch ts := payload.MessageTimestamp; {
	case ts >= 1_000_000_000_000:
		// some gateway builds report the timestamp in milliseconds
		seenAt = utils.UnixToTimeWithMilliseconds(ts)
	case ts > 0:
		seenAt = utils.UnixToTime(ts)
	}

	contact, err := s.upsertContact(ctx, jid, payload.PushName, "", seenAt)
	if err != nil {
		return err
	}

	conv, err := s.resolveConversation(ctx, contact, instanceName, payload.Key.FromMe)
	if err != nil {
		return err
	}
	if conv == nil {
		// Outbound echo with no active conversation, nothing to attach it to.
		log.Debug("Ignoring outbound message without active conversation",
			zap.String("contact_id", contact.ID),
			zap.String("message_id", payload.Key.ID),
		)
		return nil
	}

	content := model.DecodeMessageContent(payload.Message)
	if !content.Recognized {
		// Stored anyway so the history stays complete.
		log.Warn("Message body not recognized, storing without content",
			zap.String("message_id", payload.Key.ID),
		)
	}

	status := model.DeliveryReceived
	if payload.Key.FromMe {
		status = model.DeliverySent
	}

	msg := model.Message{
		MessageID:       payload.Key.ID,
		ConversationID:  conv.ConversationID,
		RemoteJID:       jid,
		FromMe:          payload.Key.FromMe,
		Kind:            content.Kind,
		Content:         content.Text,
		MediaURL:        content.MediaURL,
		Mimetype:        content.Mimetype,
		Filename:        content.Filename,
		QuotedMessageID: content.QuotedMessageID,
		Status:          status,
		Timestamp:       seenAt,
	}
	if len(payload.Message) > 0 {
		msg.RawPayload = utils.MustMarshalJSON(payload.Message)
	}

	inserted, err := s.messageRepo.InsertIgnoreDuplicate(ctx, msg)
	if err != nil {
		if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrTimeout) {
			return apperrors.NewRetryable(err, "retryable repository error inserting message")
		}
		return apperrors.NewFatal(err, "fatal repository error inserting message")
	}
	if !inserted {
		log.Debug("Duplicate message delivery, already stored",
			zap.String("message_id", payload.Key.ID),
		)
		return nil
	}

	if err := s.conversationRepo.TouchLastMessage(ctx, conv.ConversationID); err != nil {
		log.Warn("Failed to touch conversation after message insert", zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, events.SubjectMessageReceived, msg); err != nil {
		log.Warn("Failed to publish message event", zap.Error(err))
	}

	if !payload.Key.FromMe {
		s.advanceChatbot(ctx, conv, contact, content.Text)
	}
	return nil
}

// resolveConversation finds the conversation a message belongs to. Inbound
// messages may still target a just-closed conversation awaiting a rating;
// failing that, a fresh conversation is opened. Outbound echoes never open
// one.
func (s *AttendanceService) resolveConversation(ctx context.Context, contact *model.Contact, instanceName string, fromMe bool) (*model.Conversation, error) {
	log := logger.FromContext(ctx)

	conv, err := s.conversationRepo.FindActiveByContactID(ctx, contact.ID)
	if err == nil {
		return conv, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}
	if fromMe {
		return nil, nil
	}

	rated, err := s.conversationRepo.FindLatestRatingByContactID(ctx, contact.ID)
	if err == nil {
		return rated, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	now := utils.Now()
	fresh := model.Conversation{
		ConversationID: uuid.New().String(),
		Protocol:       s.newProtocol(now),
		ContactID:      contact.ID,
		InstanceName:   instanceName,
		Status:         model.StatusWaiting,
		BotState:       model.BotStateWelcome,
		LastMessageAt:  now,
	}
	conv, created, err := s.conversationRepo.FindOrCreateActive(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("Opened new conversation",
			zap.String("conversation_id", conv.ConversationID),
			zap.String("protocol", conv.Protocol),
			zap.String("contact_id", contact.ID),
		)
		if err := s.publisher.Publish(ctx, events.SubjectConversationUpdated, conv); err != nil {
			log.Warn("Failed to publish conversation event", zap.Error(err))
		}
	}
	return conv, nil
}

// advanceChatbot applies the transition table to one inbound text and queues
// the reply. Errors here never fail the webhook: the inbound message is
// already stored.
func (s *AttendanceService) advanceChatbot(ctx context.Context, conv *model.Conversation, contact *model.Contact, text string) {
	log := logger.FromContext(ctx)

	cfg, err := s.botConfigRepo.GetOrCreate(ctx)
	if err != nil {
		log.Error("Failed to load chatbot configuration", zap.Error(err))
		return
	}
	if !cfg.IsActive {
		return
	}

	teams, err := s.directoryRepo.ListTeams(ctx)
	if err != nil {
		log.Warn("Failed to list teams for chatbot menu", zap.Error(err))
	}

	tr := Advance(conv.BotState, text, cfg, teams, utils.Now())

	if tr.StateChanged || tr.AssignTeamID != "" || tr.RatingSet {
		fields := map[string]interface{}{}
		if tr.StateChanged {
			fields["bot_state"] = string(tr.Next)
		}
		if tr.AssignTeamID != "" {
			fields["team_id"] = tr.AssignTeamID
		}
		if tr.RatingSet {
			fields["rating"] = tr.Rating
		}
		expect := storage.ConversationExpectation{BotState: conv.BotState}
		if err := s.conversationRepo.UpdateIf(ctx, conv.ConversationID, expect, fields); err != nil {
			if apperrors.IsConflictError(err) {
				// A concurrent delivery already advanced this conversation.
				log.Debug("Chatbot transition lost race, skipping reply",
					zap.String("conversation_id", conv.ConversationID),
				)
				return
			}
			log.Error("Failed to persist chatbot transition",
				zap.String("conversation_id", conv.ConversationID),
				zap.Error(err),
			)
			return
		}
		observer.IncBotTransition(string(conv.BotState), string(tr.Next))
	}

	if tr.Reply == "" {
		return
	}

	task := ReplyTaskData{
		Ctx:            context.WithoutCancel(ctx),
		ConversationID: conv.ConversationID,
		InstanceName:   s.instanceFor(conv),
		Number:         contact.PhoneNumber,
		RemoteJID:      contact.RemoteJID,
		Text:           tr.Reply,
	}
	if err := s.replyWorker.SubmitTask(task); err != nil {
		log.Warn("Failed to queue chatbot reply",
			zap.String("conversation_id", conv.ConversationID),
			zap.Error(err),
		)
	}
}

// ProcessMessageUpdate applies a delivery status ack to a stored message.
// Unknown ack codes and unknown message IDs are ignored.
func (s *AttendanceService) ProcessMessageUpdate(ctx context.Context, instanceName string, payload model.MessageUpdatePayload) error {
	log := logger.FromContext(ctx)

	if payload.Key.ID == "" {
		log.Warn("Message update without message ID, ignoring")
		return nil
	}

	status, ok := model.MapGatewayStatus(payload.Status)
	if !ok {
		log.Debug("Unknown delivery status code, ignoring",
			zap.String("message_id", payload.Key.ID),
			zap.Int("status_code", payload.Status),
		)
		return nil
	}

	if err := s.messageRepo.UpdateStatus(ctx, payload.Key.ID, status); err != nil {
		if apperrors.IsNotFoundError(err) {
			log.Debug("Status update for unknown message, ignoring",
				zap.String("message_id", payload.Key.ID),
			)
			return nil
		}
		return err
	}
	return nil
}

// ProcessConnectionUpdate records the connectivity of a gateway instance.
func (s *AttendanceService) ProcessConnectionUpdate(ctx context.Context, instanceName string, payload model.ConnectionUpdatePayload) error {
	log := logger.FromContext(ctx)

	status, ok := model.MapConnectionState(payload.State)
	if !ok {
		log.Debug("Unknown connection state, ignoring",
			zap.String("instance", instanceName),
			zap.String("state", payload.State),
		)
		return nil
	}

	fields := map[string]interface{}{
		"connection_status": status,
		"updated_at":        utils.Now(),
	}
	if payload.Number != "" {
		fields["phone_number"] = utils.NormalizePhoneNumber(payload.Number)
	}
	if status == model.InstanceConnected {
		// The pairing QR is spent once the session opens.
		fields["qr_code_base64"] = ""
	}

	if err := s.instanceRepo.Update(ctx, instanceName, fields); err != nil {
		if apperrors.IsNotFoundError(err) {
			log.Warn("Connection update for unknown instance, ignoring",
				zap.String("instance", instanceName),
			)
			return nil
		}
		return err
	}

	log.Info("Instance connection status changed",
		zap.String("instance", instanceName),
		zap.String("status", status),
	)
	if err := s.publisher.Publish(ctx, events.SubjectInstanceUpdated, map[string]interface{}{
		"instance_name":     instanceName,
		"connection_status": status,
	}); err != nil {
		log.Warn("Failed to publish instance event", zap.Error(err))
	}
	return nil
}

// ProcessQRCodeUpdated stores a fresh pairing QR for an instance.
func (s *AttendanceService) ProcessQRCodeUpdated(ctx context.Context, instanceName string, payload model.QRCodeUpdatedPayload) error {
	log := logger.FromContext(ctx)

	if payload.QRCode.Base64 == "" {
		log.Warn("QR code event without payload, ignoring", zap.String("instance", instanceName))
		return nil
	}

	fields := map[string]interface{}{
		"qr_code_base64":    payload.QRCode.Base64,
		"connection_status": model.InstanceQRCode,
		"updated_at":        utils.Now(),
	}
	if err := s.instanceRepo.Update(ctx, instanceName, fields); err != nil {
		if apperrors.IsNotFoundError(err) {
			log.Warn("QR update for unknown instance, ignoring", zap.String("instance", instanceName))
			return nil
		}
		return err
	}
	return nil
}

// ProcessContactsUpsert refreshes contact metadata from a gateway sync
// batch. Entries are independent, so the batch fans out concurrently and a
// bad entry never blocks the rest.
func (s *AttendanceService) ProcessContactsUpsert(ctx context.Context, instanceName string, contacts []model.ContactUpsertPayload) error {
	log := logger.FromContext(ctx)

	if len(contacts) == 0 {
		log.Debug("Empty contacts upsert batch")
		return nil
	}

	now := utils.Now()
	iter.ForEach(contacts, func(p *model.ContactUpsertPayload) {
		jid := p.JID()
		if jid == "" || utils.IsGroupJID(jid) {
			return
		}
		if _, err := s.upsertContact(ctx, jid, p.PushName, p.ProfilePictureURL, now); err != nil {
			log.Warn("Failed to upsert contact from sync batch",
				zap.String("remote_jid", jid),
				zap.Error(err),
			)
		}
	})
	return nil
}

// upsertContact creates a contact on first sight or refreshes the
// gateway-owned columns on an existing one. Concurrent first-sight races
// collapse onto the row the winner inserted.
func (s *AttendanceService) upsertContact(ctx context.Context, jid, pushName, pictureURL string, seenAt time.Time) (*model.Contact, error) {
	existing, err := s.contactRepo.FindByRemoteJID(ctx, jid)
	if err == nil {
		fields := map[string]interface{}{
			"last_contact_at": seenAt,
			"updated_at":      utils.Now(),
		}
		if pushName != "" && pushName != existing.PushName {
			fields["push_name"] = pushName
		}
		if pictureURL != "" && pictureURL != existing.ProfilePictureURL {
			fields["profile_picture_url"] = pictureURL
		}
		if err := s.contactRepo.Update(ctx, existing.ID, fields); err != nil {
			return nil, err
		}
		existing.LastContactAt = seenAt
		if pushName != "" {
			existing.PushName = pushName
		}
		return existing, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	contact := model.Contact{
		ID:                uuid.New().String(),
		RemoteJID:         jid,
		PushName:          pushName,
		PhoneNumber:       utils.NormalizePhoneNumber(utils.JIDToNumber(jid)),
		ProfilePictureURL: pictureURL,
		FirstContactAt:    seenAt,
		LastContactAt:     seenAt,
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		if apperrors.IsDuplicateError(err) {
			// Lost the first-sight race, use the winner's row.
			return s.contactRepo.FindByRemoteJID(ctx, jid)
		}
		return nil, err
	}
	return &contact, nil
}
