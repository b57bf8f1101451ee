package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// GetOrCreateBotConfig returns the chatbot configuration row, writing the
// defaults first if none exists. Concurrent first reads may both attempt the
// insert; the loser simply re-reads.
func (r *PostgresRepo) GetOrCreateBotConfig(ctx context.Context) (*model.ChatbotConfig, error) {
	var cfg model.ChatbotConfig

	operation := func() error {
		err := r.db.WithContext(ctx).Order("id").First(&cfg).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return checkConstraintViolation(err)
		}

		defaults := model.DefaultChatbotConfig()
		if createErr := r.db.WithContext(ctx).Create(defaults).Error; createErr != nil {
			if mapped := checkConstraintViolation(createErr); !isTransientError(createErr) {
				// A duplicate insert means another writer won; fall through to re-read
				logger.FromContext(ctx).Debug("Bot config insert lost race, re-reading", zap.Error(mapped))
			}
		}
		return checkConstraintViolation(r.db.WithContext(ctx).Order("id").First(&cfg).Error)
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "GetOrCreateBotConfig Read", operation)
	observer.ObserveDbOperationDuration("read", "bot_config", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &cfg, nil
}

// UpdateBotConfig applies the given column values and returns the fresh row.
func (r *PostgresRepo) UpdateBotConfig(ctx context.Context, fields map[string]interface{}) (*model.ChatbotConfig, error) {
	cfg, err := r.GetOrCreateBotConfig(ctx)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return cfg, nil
	}
	fields["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.ChatbotConfig{}).
			Where("id = ?", cfg.ID).Updates(fields)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return checkConstraintViolation(r.db.WithContext(ctx).Where("id = ?", cfg.ID).First(cfg).Error)
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateBotConfig Commit", operation)
	observer.ObserveDbOperationDuration("update", "bot_config", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update bot config after retries", zap.Error(commitErr))
		return nil, commitErr
	}
	return cfg, nil
}
