package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/config"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	storagemock "gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage/mock"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
)

func newTestReplyWorker(t *testing.T, gatewayClient gateway.Client, messageRepo *storagemock.MessageRepoMock, convRepo *storagemock.ConversationRepoMock) *ReplyWorker {
	t.Helper()
	worker, err := NewReplyWorker(config.ReplyWorkerPoolConfig{
		PoolSize:   2,
		QueueSize:  8,
		MaxBlock:   time.Second,
		ExpiryTime: time.Minute,
	}, gatewayClient, messageRepo, convRepo, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(worker.Stop)
	return worker
}

func TestReplyWorker_SendsAndRecordsReply(t *testing.T) {
	gatewayClient := new(GatewayClientMock)
	messageRepo := new(storagemock.MessageRepoMock)
	convRepo := new(storagemock.ConversationRepoMock)
	worker := newTestReplyWorker(t, gatewayClient, messageRepo, convRepo)

	done := make(chan struct{})
	gatewayClient.On("SendText", mock.Anything, "attendance-main", "5511999990000", "hello").
		Return(&gateway.SendResult{MessageID: "wa-msg-1"}, nil)
	messageRepo.On("InsertIgnoreDuplicate", mock.Anything, mock.MatchedBy(func(msg model.Message) bool {
		return msg.MessageID == "wa-msg-1" && msg.FromMe && msg.Content == "hello"
	})).Return(true, nil)
	convRepo.On("TouchLastMessage", mock.Anything, "conv-1").
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	err := worker.SubmitTask(ReplyTaskData{
		Ctx:            logger.WithLogger(context.Background(), zaptest.NewLogger(t)),
		ConversationID: "conv-1",
		InstanceName:   "attendance-main",
		Number:         "5511999990000",
		RemoteJID:      "5511999990000@s.whatsapp.net",
		Text:           "hello",
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply task was not processed in time")
	}
	gatewayClient.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestReplyWorker_SendFailureRecordsNothing(t *testing.T) {
	gatewayClient := new(GatewayClientMock)
	messageRepo := new(storagemock.MessageRepoMock)
	convRepo := new(storagemock.ConversationRepoMock)
	worker := newTestReplyWorker(t, gatewayClient, messageRepo, convRepo)

	done := make(chan struct{})
	gatewayClient.On("SendText", mock.Anything, "attendance-main", "5511999990000", "hello").
		Run(func(mock.Arguments) { defer close(done) }).
		Return(nil, errors.New("gateway unreachable"))

	err := worker.SubmitTask(ReplyTaskData{
		Ctx:            context.Background(),
		ConversationID: "conv-1",
		InstanceName:   "attendance-main",
		Number:         "5511999990000",
		Text:           "hello",
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply task was not processed in time")
	}
	// Give the worker goroutine a beat to run past the send.
	time.Sleep(50 * time.Millisecond)
	messageRepo.AssertNotCalled(t, "InsertIgnoreDuplicate", mock.Anything, mock.Anything)
	convRepo.AssertNotCalled(t, "TouchLastMessage", mock.Anything, mock.Anything)
}
