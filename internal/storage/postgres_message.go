package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// InsertMessageIgnoreDuplicate stores the message unless its gateway ID was
// already seen, making webhook re-deliveries idempotent. The bool reports
// whether a row was inserted.
func (r *PostgresRepo) InsertMessageIgnoreDuplicate(ctx context.Context, msg model.Message) (bool, error) {
	msg.UpdatedAt = utils.Now()
	inserted := false

	operation := func() error {
		insert := msg
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).Create(&insert)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		inserted = result.RowsAffected > 0
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertMessageIgnoreDuplicate Commit", operation)
	observer.ObserveDbOperationDuration("insert", "message", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert message after retries",
			zap.String("message_id", msg.MessageID), zap.Error(commitErr))
		return false, commitErr
	}

	return inserted, nil
}

// FindMessageByMessageID loads one message by its gateway-assigned ID.
func (r *PostgresRepo) FindMessageByMessageID(ctx context.Context, messageID string) (*model.Message, error) {
	var msg model.Message

	operation := func() error {
		result := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&msg)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindMessageByMessageID Read", operation)
	observer.ObserveDbOperationDuration("read", "message", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &msg, nil
}

// UpdateMessageStatus sets the delivery status of a message by its gateway ID.
func (r *PostgresRepo) UpdateMessageStatus(ctx context.Context, messageID, status string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Message{}).
			Where("message_id = ?", messageID).
			Updates(map[string]interface{}{"status": status, "updated_at": utils.Now()})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: message %s", apperrors.ErrNotFound, messageID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateMessageStatus Commit", operation)
	observer.ObserveDbOperationDuration("update", "message", time.Since(startTime), commitErr)

	if commitErr != nil && !apperrors.IsNotFoundError(commitErr) {
		logger.FromContext(ctx).Error("Failed to update message status after retries",
			zap.String("message_id", messageID), zap.Error(commitErr))
	}
	return commitErr
}

// ListMessagesByConversation returns up to limit messages, newest first.
// When beforeMessageID is set, only messages older than that one are
// returned, which is how clients page backwards through history.
func (r *PostgresRepo) ListMessagesByConversation(ctx context.Context, conversationID, beforeMessageID string, limit int) ([]model.Message, error) {
	var messages []model.Message

	if limit <= 0 {
		limit = 50
	}

	operation := func() error {
		query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)

		if beforeMessageID != "" {
			var anchor model.Message
			if err := r.db.WithContext(ctx).
				Select("timestamp").
				Where("message_id = ?", beforeMessageID).
				First(&anchor).Error; err == nil {
				query = query.Where("timestamp < ?", anchor.Timestamp)
			}
			// An unknown anchor just means no cursor; fall through unfiltered
		}

		result := query.Order("timestamp DESC").Limit(limit).Find(&messages)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListMessagesByConversation Read", operation)
	observer.ObserveDbOperationDuration("read", "message", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return messages, nil
}
