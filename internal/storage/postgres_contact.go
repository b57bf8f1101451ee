package storage

import (
	"time"

	"context"

	"go.uber.org/zap"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/logger"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// SaveContact stores a new contact in the database.
func (r *PostgresRepo) SaveContact(ctx context.Context, contact model.Contact) error {
	contact.UpdatedAt = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Create(&contact)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveContact Commit", operation)
	observer.ObserveDbOperationDuration("insert", "contact", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save contact after retries",
			zap.String("remote_jid", contact.RemoteJID), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// UpdateContact applies the given column values to a contact by ID.
func (r *PostgresRepo) UpdateContact(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = utils.Now()

	operation := func() error {
		result := r.db.WithContext(ctx).Model(&model.Contact{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateContact Commit", operation)
	observer.ObserveDbOperationDuration("update", "contact", time.Since(startTime), commitErr)

	if commitErr != nil {
		if apperrors.IsNotFoundError(commitErr) {
			return commitErr
		}
		logger.FromContext(ctx).Error("Failed to update contact after retries",
			zap.String("contact_id", id), zap.Error(commitErr))
		return commitErr
	}

	return nil
}

// FindContactByID loads one contact by its internal ID.
func (r *PostgresRepo) FindContactByID(ctx context.Context, id string) (*model.Contact, error) {
	var contact model.Contact

	operation := func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).First(&contact)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindContactByID Read", operation)
	observer.ObserveDbOperationDuration("read", "contact", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &contact, nil
}

// FindContactByRemoteJID loads one contact by its WhatsApp JID.
func (r *PostgresRepo) FindContactByRemoteJID(ctx context.Context, jid string) (*model.Contact, error) {
	var contact model.Contact

	operation := func() error {
		result := r.db.WithContext(ctx).Where("remote_jid = ?", jid).First(&contact)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindContactByRemoteJID Read", operation)
	observer.ObserveDbOperationDuration("read", "contact", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &contact, nil
}

// ListContacts returns a page of contacts with the total count. A non-empty
// search term matches push name, custom name and phone number.
func (r *PostgresRepo) ListContacts(ctx context.Context, search string, limit, offset int) ([]model.Contact, int64, error) {
	var contacts []model.Contact
	var total int64

	if limit <= 0 {
		limit = 50
	}

	operation := func() error {
		query := r.db.WithContext(ctx).Model(&model.Contact{})
		if search != "" {
			pattern := "%" + search + "%"
			query = query.Where("push_name ILIKE ? OR custom_name ILIKE ? OR phone_number ILIKE ?", pattern, pattern, pattern)
		}
		if err := query.Count(&total).Error; err != nil {
			return checkConstraintViolation(err)
		}
		result := query.Order("last_contact_at DESC").Limit(limit).Offset(offset).Find(&contacts)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListContacts Read", operation)
	observer.ObserveDbOperationDuration("read", "contact", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, 0, readErr
	}
	return contacts, total, nil
}
