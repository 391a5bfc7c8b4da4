package repositories

import (
	"context"
	"errors"
	"testlab/internal/database"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/services"
	"time"

	"gorm.io/gorm"
)

const (
	CONTACT_SUBMISSION_CACHE_EXPIRY = 24 * time.Hour
	contactSubmissionCachePrefix    = "contactSubmissionRecord"
)

type ContactSubmissionRepository interface {
	GetByID(ctx context.Context, id string) (ContactSubmission, bool, error)
	Create(ctx context.Context, submission *ContactSubmission) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]ContactSubmission, error)
	Count(ctx context.Context) (int64, error)
	Evict(ctx context.Context, id string)
}

type contactSubmissionRepository struct {
	db    database.DB
	log   logger.Logger
	cache recordCache[ContactSubmission]
}

func NewContactSubmission(db database.DB) ContactSubmissionRepository {
	return &contactSubmissionRepository{
		db:    db,
		log:   logger.New("contactSubmissionRepository"),
		cache: newRecordCache[ContactSubmission](db.Cache.Records, contactSubmissionCachePrefix, CONTACT_SUBMISSION_CACHE_EXPIRY),
	}
}

func (r *contactSubmissionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *contactSubmissionRepository) GetByID(ctx context.Context, id string) (ContactSubmission, bool, error) {
	log := r.log.Function("GetByID")

	entry, found, err := r.cache.Get(ctx, id)
	if err != nil {
		log.Warn("failed to read contact submission from cache", "contactSubmissionID", id, "error", err)
	}
	if found && entry.Tombstone {
		return ContactSubmission{}, false, nil
	}
	if found {
		return entry.Record, true, nil
	}

	var submission ContactSubmission
	err = r.getDB(ctx).Where("id = ?", id).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ContactSubmission{}, false, nil
	}
	if err != nil {
		return ContactSubmission{}, false, log.Err("failed to get contact submission by id", err, "id", id)
	}

	if _, inTx := services.GetTransaction(ctx); !inTx {
		if err := r.cache.Fill(ctx, id, submission); err != nil {
			log.Warn("failed to add contact submission to cache", "contactSubmissionID", id, "error", err)
		}
	}

	return submission, true, nil
}

func (r *contactSubmissionRepository) Create(ctx context.Context, submission *ContactSubmission) error {
	if err := r.getDB(ctx).Create(submission).Error; err != nil {
		return r.log.Function("Create").Err("failed to create contact submission", err, "name", submission.Name)
	}
	return nil
}

func (r *contactSubmissionRepository) Delete(ctx context.Context, id string) (bool, error) {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Where("id = ?", id).Delete(&ContactSubmission{})
	if result.Error != nil {
		return false, log.Err("failed to delete contact submission", result.Error, "id", id)
	}

	deleted := result.RowsAffected > 0
	if _, inTx := services.GetTransaction(ctx); deleted && !inTx {
		r.Evict(ctx, id)
	}
	return deleted, nil
}

func (r *contactSubmissionRepository) List(ctx context.Context, limit, offset int) ([]ContactSubmission, error) {
	submissions := make([]ContactSubmission, 0, limit)
	if err := r.getDB(ctx).
		Order("submitted_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error; err != nil {
		return nil, r.log.Function("List").
			Err("failed to list contact submissions", err, "limit", limit, "offset", offset)
	}

	return submissions, nil
}

func (r *contactSubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&ContactSubmission{}).Count(&count).Error; err != nil {
		return 0, r.log.Function("Count").Err("failed to count contact submissions", err)
	}
	return count, nil
}

// Evict replaces the cached record with a tombstone. Deletes are permanent
// and ids are never reused, so the tombstone outlives any read that raced
// the delete. Callers inside a transaction evict after commit.
func (r *contactSubmissionRepository) Evict(ctx context.Context, id string) {
	if err := r.cache.Tombstone(ctx, id, CONTACT_SUBMISSION_CACHE_EXPIRY); err != nil {
		r.log.Function("Evict").Warn("failed to tombstone contact submission in cache", "contactSubmissionID", id, "error", err)
	}
}
