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
	TEST_REQUEST_CACHE_EXPIRY = 24 * time.Hour
	testRequestCachePrefix    = "testRequestRecord"
)

type TestRequestRepository interface {
	GetByID(ctx context.Context, id string) (TestRequest, bool, error)
	Create(ctx context.Context, testRequest *TestRequest) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]TestRequest, error)
	Count(ctx context.Context) (int64, error)
	Evict(ctx context.Context, id string)
}

type testRequestRepository struct {
	db    database.DB
	log   logger.Logger
	cache recordCache[TestRequest]
}

func NewTestRequest(db database.DB) TestRequestRepository {
	return &testRequestRepository{
		db:    db,
		log:   logger.New("testRequestRepository"),
		cache: newRecordCache[TestRequest](db.Cache.Records, testRequestCachePrefix, TEST_REQUEST_CACHE_EXPIRY),
	}
}

func (r *testRequestRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

// GetByID reports found=false for an unknown id rather than an error.
func (r *testRequestRepository) GetByID(ctx context.Context, id string) (TestRequest, bool, error) {
	log := r.log.Function("GetByID")

	entry, found, err := r.cache.Get(ctx, id)
	if err != nil {
		log.Warn("failed to read test request from cache", "testRequestID", id, "error", err)
	}
	if found && entry.Tombstone {
		return TestRequest{}, false, nil
	}
	if found {
		return entry.Record, true, nil
	}

	var testRequest TestRequest
	err = r.getDB(ctx).Where("id = ?", id).Take(&testRequest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TestRequest{}, false, nil
	}
	if err != nil {
		return TestRequest{}, false, log.Err("failed to get test request by id", err, "id", id)
	}

	if _, inTx := services.GetTransaction(ctx); !inTx {
		if err := r.cache.Fill(ctx, id, testRequest); err != nil {
			log.Warn("failed to add test request to cache", "testRequestID", id, "error", err)
		}
	}

	return testRequest, true, nil
}

func (r *testRequestRepository) Create(ctx context.Context, testRequest *TestRequest) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(testRequest).Error; err != nil {
		return log.Err("failed to create test request", err, "customerName", testRequest.CustomerName)
	}

	return nil
}

func (r *testRequestRepository) Delete(ctx context.Context, id string) (bool, error) {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Where("id = ?", id).Delete(&TestRequest{})
	if result.Error != nil {
		return false, log.Err("failed to delete test request", result.Error, "id", id)
	}

	deleted := result.RowsAffected > 0
	if _, inTx := services.GetTransaction(ctx); deleted && !inTx {
		r.Evict(ctx, id)
	}
	return deleted, nil
}

// List pages through the collection in insertion order.
func (r *testRequestRepository) List(ctx context.Context, limit, offset int) ([]TestRequest, error) {
	log := r.log.Function("List")

	testRequests := make([]TestRequest, 0, limit)
	if err := r.getDB(ctx).
		Order("submitted_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&testRequests).Error; err != nil {
		return nil, log.Err("failed to list test requests", err, "limit", limit, "offset", offset)
	}

	return testRequests, nil
}

func (r *testRequestRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).Model(&TestRequest{}).Count(&count).Error; err != nil {
		return 0, r.log.Function("Count").Err("failed to count test requests", err)
	}
	return count, nil
}

// Evict replaces the cached record with a tombstone. Deletes are permanent
// and ids are never reused, so the tombstone outlives any read that raced
// the delete. Callers inside a transaction evict after commit.
func (r *testRequestRepository) Evict(ctx context.Context, id string) {
	if err := r.cache.Tombstone(ctx, id, TEST_REQUEST_CACHE_EXPIRY); err != nil {
		r.log.Function("Evict").Warn("failed to tombstone test request in cache", "testRequestID", id, "error", err)
	}
}
