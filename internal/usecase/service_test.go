package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/actor"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/events"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	storagemock "gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage/mock"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// GatewayClientMock is a testify mock of the gateway client.
type GatewayClientMock struct {
	mock.Mock
}

func (m *GatewayClientMock) CreateInstance(ctx context.Context, req gateway.CreateInstanceRequest) (*gateway.InstanceResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.InstanceResult), args.Error(1)
}

func (m *GatewayClientMock) ConnectInstance(ctx context.Context, instanceName string) (*gateway.QRCodeResult, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.QRCodeResult), args.Error(1)
}

func (m *GatewayClientMock) GetConnectionState(ctx context.Context, instanceName string) (string, error) {
	args := m.Called(ctx, instanceName)
	return args.String(0), args.Error(1)
}

func (m *GatewayClientMock) RestartInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *GatewayClientMock) LogoutInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *GatewayClientMock) DeleteInstance(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

func (m *GatewayClientMock) SendText(ctx context.Context, instanceName, number, text string) (*gateway.SendResult, error) {
	args := m.Called(ctx, instanceName, number, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResult), args.Error(1)
}

func (m *GatewayClientMock) SendMedia(ctx context.Context, instanceName, number string, media gateway.MediaAttachment) (*gateway.SendResult, error) {
	args := m.Called(ctx, instanceName, number, media)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.SendResult), args.Error(1)
}

func (m *GatewayClientMock) FetchMediaBase64(ctx context.Context, instanceName, messageID, remoteJID string, fromMe bool) (*gateway.MediaPayload, error) {
	args := m.Called(ctx, instanceName, messageID, remoteJID, fromMe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.MediaPayload), args.Error(1)
}

// ReplyWorkerMock records reply submissions instead of sending them.
type ReplyWorkerMock struct {
	mock.Mock
}

func (m *ReplyWorkerMock) SubmitTask(task ReplyTaskData) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *ReplyWorkerMock) Stop() {
	m.Called()
}

type serviceMocks struct {
	contactRepo        *storagemock.ContactRepoMock
	conversationRepo   *storagemock.ConversationRepoMock
	messageRepo        *storagemock.MessageRepoMock
	instanceRepo       *storagemock.InstanceRepoMock
	botConfigRepo      *storagemock.BotConfigRepoMock
	quickReplyRepo     *storagemock.QuickReplyRepoMock
	classificationRepo *storagemock.ClassificationRepoMock
	directoryRepo      *storagemock.DirectoryRepoMock
	gatewayClient      *GatewayClientMock
	replyWorker        *ReplyWorkerMock
}

func newTestService() (*AttendanceService, *serviceMocks) {
	m := &serviceMocks{
		contactRepo:        new(storagemock.ContactRepoMock),
		conversationRepo:   new(storagemock.ConversationRepoMock),
		messageRepo:        new(storagemock.MessageRepoMock),
		instanceRepo:       new(storagemock.InstanceRepoMock),
		botConfigRepo:      new(storagemock.BotConfigRepoMock),
		quickReplyRepo:     new(storagemock.QuickReplyRepoMock),
		classificationRepo: new(storagemock.ClassificationRepoMock),
		directoryRepo:      new(storagemock.DirectoryRepoMock),
		gatewayClient:      new(GatewayClientMock),
		replyWorker:        new(ReplyWorkerMock),
	}
	svc := NewAttendanceService(
		m.contactRepo,
		m.conversationRepo,
		m.messageRepo,
		m.instanceRepo,
		m.botConfigRepo,
		m.quickReplyRepo,
		m.classificationRepo,
		m.directoryRepo,
		m.gatewayClient,
		events.NoopPublisher{},
		m.replyWorker,
		"attendance-main",
	)
	return svc, m
}

func testContext(t *testing.T) context.Context {
	return logger.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func actorContext(t *testing.T, agentID string) context.Context {
	return actor.WithAgentID(testContext(t), agentID)
}

func agentContext(t *testing.T, m *serviceMocks, agent *model.Agent) context.Context {
	m.directoryRepo.On("FindAgent", mock.Anything, agent.ID).Return(agent, nil)
	return actorContext(t, agent.ID)
}
