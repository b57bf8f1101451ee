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

// SaveInstance stores a new gateway instance row.
func (r *PostgresRepo) SaveInstance(ctx context.Context, instance model.GatewayInstance) error {
	instance.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Create(&instance)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveInstance Commit", operation)
	observer.ObserveDbOperationDuration("insert", "instance", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save instance after retries",
			zap.String("instance_name", instance.InstanceName), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpdateInstance applies the given column values to an instance by name.
func (r *PostgresRepo) UpdateInstance(ctx context.Context, instanceName string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.GatewayInstance{}).
			Where("instance_name = ?", instanceName).Updates(fields)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: instance %s", apperrors.ErrNotFound, instanceName)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateInstance Commit", operation)
	observer.ObserveDbOperationDuration("update", "instance", time.Since(startTime), commitErr)

	if commitErr != nil && !apperrors.IsNotFoundError(commitErr) {
		logger.FromContext(ctx).Error("Failed to update instance after retries",
			zap.String("instance_name", instanceName), zap.Error(commitErr))
	}
	return commitErr
}

// FindInstanceByName loads one instance by its gateway name.
func (r *PostgresRepo) FindInstanceByName(ctx context.Context, instanceName string) (*model.GatewayInstance, error) {
	var instance model.GatewayInstance

	operation := func() error {
		result := r.db.WithContext(ctx).Where("instance_name = ?", instanceName).First(&instance)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindInstanceByName Read", operation)
	observer.ObserveDbOperationDuration("read", "instance", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &instance, nil
}

// ListActiveInstances returns every active gateway instance.
func (r *PostgresRepo) ListActiveInstances(ctx context.Context) ([]model.GatewayInstance, error) {
	var instances []model.GatewayInstance

	operation := func() error {
		result := r.db.WithContext(ctx).Where("is_active = ?", true).Order("instance_name").Find(&instances)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListActiveInstances Read", operation)
	observer.ObserveDbOperationDuration("read", "instance", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return instances, nil
}

// DeleteInstance removes an instance row by name.
func (r *PostgresRepo) DeleteInstance(ctx context.Context, instanceName string) error {
	operation := func() error {
		result := r.db.WithContext(ctx).Where("instance_name = ?", instanceName).Delete(&model.GatewayInstance{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: instance %s", apperrors.ErrNotFound, instanceName)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeleteInstance Commit", operation)
	observer.ObserveDbOperationDuration("delete", "instance", time.Since(startTime), commitErr)

	return commitErr
}
