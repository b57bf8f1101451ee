package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/actor"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
)

// AttendanceService implements webhook ingestion and the agent-facing
// conversation operations.
type AttendanceService struct {
	contactRepo        storage.ContactRepo
	conversationRepo   storage.ConversationRepo
	messageRepo        storage.MessageRepo
	instanceRepo       storage.InstanceRepo
	botConfigRepo      storage.BotConfigRepo
	quickReplyRepo     storage.QuickReplyRepo
	classificationRepo storage.ClassificationRepo
	directoryRepo      storage.DirectoryRepo
	gateway            gateway.Client
	publisher          events.Publisher
	replyWorker        IReplyWorker
	defaultInstance    string

	protocolSeq atomic.Uint64
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	contactRepo storage.ContactRepo,
	conversationRepo storage.ConversationRepo,
	messageRepo storage.MessageRepo,
	instanceRepo storage.InstanceRepo,
	botConfigRepo storage.BotConfigRepo,
	quickReplyRepo storage.QuickReplyRepo,
	classificationRepo storage.ClassificationRepo,
	directoryRepo storage.DirectoryRepo,
	gatewayClient gateway.Client,
	publisher events.Publisher,
	replyWorker IReplyWorker,
	defaultInstance string,
) *AttendanceService {
	return &AttendanceService{
		contactRepo:        contactRepo,
		conversationRepo:   conversationRepo,
		messageRepo:        messageRepo,
		instanceRepo:       instanceRepo,
		botConfigRepo:      botConfigRepo,
		quickReplyRepo:     quickReplyRepo,
		classificationRepo: classificationRepo,
		directoryRepo:      directoryRepo,
		gateway:            gatewayClient,
		publisher:          publisher,
		replyWorker:        replyWorker,
		defaultInstance:    defaultInstance,
	}
}

// requireAgent resolves the acting agent from the request context against
// the agent directory.
func (s *AttendanceService) requireAgent(ctx context.Context) (*model.Agent, error) {
	agentID, err := actor.AgentIDFromContext(ctx)
	if err != nil {
		return nil, apperrors.NewFatal(err, "no acting agent in context")
	}
	agent, err := s.directoryRepo.FindAgent(ctx, agentID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: agent %s is not registered", apperrors.ErrUnauthorized, agentID)
		}
		return nil, err
	}
	if !agent.IsActive {
		return nil, fmt.Errorf("%w: agent %s is deactivated", apperrors.ErrForbidden, agentID)
	}
	return agent, nil
}

// newProtocol mints a human-readable protocol code. The second-resolution
// timestamp alone is not unique under concurrent creation, so a process
// sequence number is appended.
func (s *AttendanceService) newProtocol(now time.Time) string {
	seq := s.protocolSeq.Add(1) % 10000
	return fmt.Sprintf("ATD%s%04d", now.Format("20060102150405"), seq)
}

// instanceFor resolves the gateway instance a conversation sends through.
func (s *AttendanceService) instanceFor(conv *model.Conversation) string {
	if conv.InstanceName != "" {
		return conv.InstanceName
	}
	return s.defaultInstance
}
