package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/config"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// ReplyTaskData holds one chatbot reply waiting to be sent.
type ReplyTaskData struct {
	Ctx            context.Context // context derived for the task, NOT the original request context
	ConversationID string
	InstanceName   string
	Number         string
	RemoteJID      string
	Text           string
}

// IReplyWorker defines the interface for the chatbot reply worker pool.
type IReplyWorker interface {
	SubmitTask(taskData ReplyTaskData) error
	Stop()
}

// ReplyWorker sends chatbot replies off the webhook path. The inbound
// message and the state transition are already persisted when a task is
// submitted; a failed send leaves the conversation waiting without a bot
// answer, which is acceptable.
type ReplyWorker struct {
	pool        *ants.PoolWithFunc
	gateway     gateway.Client
	messageRepo storage.MessageRepo
	convRepo    storage.ConversationRepo
	cfg         config.ReplyWorkerPoolConfig
	baseLogger  *zap.Logger
}

var _ IReplyWorker = (*ReplyWorker)(nil)

// NewReplyWorker creates and initializes a new reply worker pool.
func NewReplyWorker(
	cfg config.ReplyWorkerPoolConfig,
	gatewayClient gateway.Client,
	messageRepo storage.MessageRepo,
	convRepo storage.ConversationRepo,
	baseLogger *zap.Logger,
) (*ReplyWorker, error) {
	worker := &ReplyWorker{
		gateway:     gatewayClient,
		messageRepo: messageRepo,
		convRepo:    convRepo,
		cfg:         cfg,
		baseLogger:  baseLogger.Named("reply_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(ReplyTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processReplyTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in reply worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Reply worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("max_block_time", cfg.MaxBlock),
	)
	return worker, nil
}

// SubmitTask queues one chatbot reply for delivery.
func (w *ReplyWorker) SubmitTask(taskData ReplyTaskData) error {
	start := time.Now()
	observer.IncReplyTasksSubmitted()
	observer.SetReplyQueueLength(w.pool.Waiting())

	err := w.pool.Invoke(taskData)
	duration := time.Since(start)

	if err != nil {
		w.baseLogger.Warn("Failed to submit reply task to pool",
			zap.String("conversation_id", taskData.ConversationID),
			zap.Duration("submit_duration", duration),
			zap.Error(err),
		)
		observer.IncReplyTasksProcessed("submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("reply pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke reply task: %w", err)
	}

	w.baseLogger.Debug("Successfully submitted reply task",
		zap.String("conversation_id", taskData.ConversationID),
		zap.Duration("submit_duration", duration),
	)
	return nil
}

// processReplyTask runs inside a worker goroutine: one gateway send plus one
// outbound message row.
func (w *ReplyWorker) processReplyTask(taskData ReplyTaskData) {
	log := logger.FromContextOr(taskData.Ctx, w.baseLogger).With(
		zap.String("task_conversation_id", taskData.ConversationID),
		zap.String("task_instance", taskData.InstanceName),
	)

	start := time.Now()
	status := "success"

	log.Debug("Processing reply task")

	result, err := w.gateway.SendText(taskData.Ctx, taskData.InstanceName, taskData.Number, taskData.Text)
	if err != nil {
		// The inbound message and state transition are already durable; the
		// contact simply gets no bot answer.
		log.Warn("Chatbot reply send failed", zap.Error(err))
		observer.IncBotReply("send_failed")
		observer.IncReplyTasksProcessed("failure_send")
		observer.ObserveReplyProcessingDuration(time.Since(start))
		return
	}

	messageID := result.MessageID
	if messageID == "" {
		messageID = uuid.New().String()
	}

	outbound := model.Message{
		MessageID:      messageID,
		ConversationID: taskData.ConversationID,
		RemoteJID:      taskData.RemoteJID,
		FromMe:         true,
		Kind:           model.MessageKindText,
		Content:        taskData.Text,
		Status:         model.DeliverySent,
		Timestamp:      utils.Now(),
	}
	if _, err := w.messageRepo.InsertIgnoreDuplicate(taskData.Ctx, outbound); err != nil {
		log.Error("Failed to record outbound chatbot reply",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		status = "failure_record"
	} else if err := w.convRepo.TouchLastMessage(taskData.Ctx, taskData.ConversationID); err != nil {
		log.Warn("Failed to touch conversation after reply", zap.Error(err))
	}

	observer.IncBotReply("sent")
	observer.ObserveReplyProcessingDuration(time.Since(start))
	observer.IncReplyTasksProcessed(status)

	log.Debug("Finished processing reply task", zap.Duration("duration", time.Since(start)), zap.String("final_status", status))
}

// Stop gracefully shuts down the worker pool.
func (w *ReplyWorker) Stop() {
	if w.pool != nil {
		w.baseLogger.Info("Releasing reply worker pool")
		start := time.Now()
		w.pool.Release()
		w.baseLogger.Info("Reply worker pool released", zap.Duration("duration", time.Since(start)))
	}
}
