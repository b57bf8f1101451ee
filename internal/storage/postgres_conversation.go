package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// FindOrCreateActive atomically resolves the contact's active conversation.
// The insert races against the partial unique index on (contact_id) WHERE
// status <> 'closed'; a conflict means another writer won and the existing
// row is re-read.
func (r *PostgresRepo) FindOrCreateActive(ctx context.Context, conv model.Conversation) (*model.Conversation, bool, error) {
	conv.UpdatedAt = utils.Now()
	created := false

	operation := func() error {
		insert := conv
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "contact_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Neq{Column: clause.Column{Name: "status"}, Value: string(model.StatusClosed)},
			}},
			DoNothing: true,
		}).Create(&insert)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		created = result.RowsAffected > 0
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "FindOrCreateActive Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "conversation", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to find-or-create conversation after retries",
			zap.String("contact_id", conv.ContactID), zap.Error(commitErr))
		return nil, false, commitErr
	}

	active, err := r.FindActiveByContactID(ctx, conv.ContactID)
	if err != nil {
		// The active row vanished between insert and re-read; surface as conflict
		if apperrors.IsNotFoundError(err) {
			return nil, false, fmt.Errorf("%w: active conversation disappeared for contact %s", apperrors.ErrConflict, conv.ContactID)
		}
		return nil, false, err
	}
	return active, created, nil
}

// FindByConversationID loads one conversation by its public ID.
func (r *PostgresRepo) FindByConversationID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var conv model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&conv)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindByConversationID Read", operation)
	observer.ObserveDbOperationDuration("read", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &conv, nil
}

// FindActiveByContactID loads the contact's single non-closed conversation.
func (r *PostgresRepo) FindActiveByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	var conv model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("contact_id = ? AND status <> ?", contactID, model.StatusClosed).
			First(&conv)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindActiveByContactID Read", operation)
	observer.ObserveDbOperationDuration("read", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &conv, nil
}

// FindLatestRatingByContactID loads the contact's most recently closed
// conversation still collecting a rating.
func (r *PostgresRepo) FindLatestRatingByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	var conv model.Conversation

	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("contact_id = ? AND status = ? AND bot_state = ?", contactID, model.StatusClosed, model.BotStateRating).
			Order("closed_at DESC").
			First(&conv)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindLatestRatingByContactID Read", operation)
	observer.ObserveDbOperationDuration("read", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &conv, nil
}

// ListConversations returns a filtered page of conversations, most recent
// activity first, plus the total count.
func (r *PostgresRepo) ListConversations(ctx context.Context, filter ConversationFilter) ([]model.Conversation, int64, error) {
	var convs []model.Conversation
	var total int64

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	operation := func() error {
		query := r.db.WithContext(ctx).Model(&model.Conversation{})
		if len(filter.Statuses) > 0 {
			query = query.Where("status IN ?", filter.Statuses)
		}
		if filter.TeamID != "" {
			query = query.Where("team_id = ?", filter.TeamID)
		}
		if filter.AgentID != "" {
			query = query.Where("assigned_agent_id = ?", filter.AgentID)
		}
		if filter.ContactID != "" {
			query = query.Where("contact_id = ?", filter.ContactID)
		}
		if err := query.Count(&total).Error; err != nil {
			return checkConstraintViolation(err)
		}
		result := query.Order("last_message_at DESC").Limit(limit).Offset(filter.Offset).Find(&convs)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListConversations Read", operation)
	observer.ObserveDbOperationDuration("read", "conversation", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, 0, readErr
	}
	return convs, total, nil
}

// UpdateIf applies column values to a conversation while the expectation
// holds. When the guarded UPDATE matches nothing, a plain lookup decides
// between not-found and conflict.
func (r *PostgresRepo) UpdateIf(ctx context.Context, conversationID string, expect ConversationExpectation, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = utils.Now()

	operation := func() error {
		query := r.db.WithContext(ctx).Model(&model.Conversation{}).
			Where("conversation_id = ?", conversationID)
		if expect.Status != "" {
			query = query.Where("status = ?", expect.Status)
		}
		if expect.BotState != "" {
			query = query.Where("bot_state = ?", expect.BotState)
		}

		result := query.Updates(fields)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			var probe model.Conversation
			if err := r.db.WithContext(ctx).Select("id").Where("conversation_id = ?", conversationID).First(&probe).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: conversation %s", apperrors.ErrNotFound, conversationID)
				}
				return checkConstraintViolation(err)
			}
			return fmt.Errorf("%w: conversation %s no longer matches expected state", apperrors.ErrConflict, conversationID)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateIf Commit", operation)
	observer.ObserveDbOperationDuration("update", "conversation", time.Since(startTime), commitErr)

	if commitErr != nil {
		if apperrors.IsNotFoundError(commitErr) || apperrors.IsConflictError(commitErr) {
			return commitErr
		}
		logger.FromContext(ctx).Error("Failed to update conversation after retries",
			zap.String("conversation_id", conversationID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// TouchLastMessage bumps the conversation's last activity timestamp.
func (r *PostgresRepo) TouchLastMessage(ctx context.Context, conversationID string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Conversation{}).
			Where("conversation_id = ?", conversationID).
			Updates(map[string]interface{}{"last_message_at": utils.Now(), "updated_at": utils.Now()})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "TouchLastMessage Commit", operation)
	observer.ObserveDbOperationDuration("update", "conversation", time.Since(startTime), commitErr)

	return commitErr
}
