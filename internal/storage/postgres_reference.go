package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// SaveQuickReply stores a new canned reply.
func (r *PostgresRepo) SaveQuickReply(ctx context.Context, reply model.QuickReply) error {
	reply.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Create(&reply)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveQuickReply Commit", operation)
	observer.ObserveDbOperationDuration("insert", "quick_reply", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save quick reply after retries",
			zap.String("title", reply.Title), zap.Error(commitErr))
	}
	return commitErr
}

// UpdateQuickReply applies the given column values to a quick reply by ID.
func (r *PostgresRepo) UpdateQuickReply(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.QuickReply{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: quick reply %s", apperrors.ErrNotFound, id)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateQuickReply Commit", operation)
	observer.ObserveDbOperationDuration("update", "quick_reply", time.Since(startTime), commitErr)

	return commitErr
}

// DeleteQuickReply removes a quick reply by ID.
func (r *PostgresRepo) DeleteQuickReply(ctx context.Context, id string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.QuickReply{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: quick reply %s", apperrors.ErrNotFound, id)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeleteQuickReply Commit", operation)
	observer.ObserveDbOperationDuration("delete", "quick_reply", time.Since(startTime), commitErr)

	return commitErr
}

// ListQuickReplies returns active quick replies visible to the given teams,
// global replies included.
func (r *PostgresRepo) ListQuickReplies(ctx context.Context, teamIDs []string) ([]model.QuickReply, error) {
	var replies []model.QuickReply

	operation := func() error {
		query := r.db.WithContext(ctx).Where("is_active = ?", true)
		if len(teamIDs) > 0 {
			query = query.Where("team_id = '' OR team_id IN ?", teamIDs)
		} else {
			query = query.Where("team_id = ''")
		}
		result := query.Order("title").Find(&replies)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListQuickReplies Read", operation)
	observer.ObserveDbOperationDuration("read", "quick_reply", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return replies, nil
}

// SaveClassification stores a new closing classification.
func (r *PostgresRepo) SaveClassification(ctx context.Context, classification model.Classification) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Create(&classification)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveClassification Commit", operation)
	observer.ObserveDbOperationDuration("insert", "classification", time.Since(startTime), commitErr)

	return commitErr
}

// ListClassifications returns classifications, active only by default.
func (r *PostgresRepo) ListClassifications(ctx context.Context, includeInactive bool) ([]model.Classification, error) {
	var classifications []model.Classification

	operation := func() error {
		query := r.db.WithContext(ctx).Model(&model.Classification{})
		if !includeInactive {
			query = query.Where("is_active = ?", true)
		}
		result := query.Order("name").Find(&classifications)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListClassifications Read", operation)
	observer.ObserveDbOperationDuration("read", "classification", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return classifications, nil
}

// DeactivateClassification soft-deletes a classification by ID.
func (r *PostgresRepo) DeactivateClassification(ctx context.Context, id string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Classification{}).
			Where("id = ?", id).Update("is_active", false)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: classification %s", apperrors.ErrNotFound, id)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeactivateClassification Commit", operation)
	observer.ObserveDbOperationDuration("update", "classification", time.Since(startTime), commitErr)

	return commitErr
}
