package repositories

import (
	"context"
	"errors"
	"testlab/internal/database"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/services"

	"gorm.io/gorm"
)

type CollectionVersionRepository interface {
	Get(ctx context.Context, collection string) (int64, error)
	Bump(ctx context.Context, collection string) (int64, error)
}

type collectionVersionRepository struct {
	db  database.DB
	log logger.Logger
}

func NewCollectionVersion(db database.DB) CollectionVersionRepository {
	return &collectionVersionRepository{
		db:  db,
		log: logger.New("collectionVersionRepository"),
	}
}

func (r *collectionVersionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *collectionVersionRepository) Get(ctx context.Context, collection string) (int64, error) {
	var version CollectionVersion
	err := r.getDB(ctx).Where("collection = ?", collection).Take(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, r.log.Function("Get").Err("failed to get collection version", err, "collection", collection)
	}
	return version.Version, nil
}

// Bump increments the counter and returns the new value. Call it inside the
// transaction that performs the mutation.
func (r *collectionVersionRepository) Bump(ctx context.Context, collection string) (int64, error) {
	log := r.log.Function("Bump")
	db := r.getDB(ctx)

	result := db.Model(&CollectionVersion{}).
		Where("collection = ?", collection).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return 0, log.Err("failed to bump collection version", result.Error, "collection", collection)
	}

	if result.RowsAffected == 0 {
		if err := db.Create(&CollectionVersion{Collection: collection, Version: 1}).Error; err != nil {
			return 0, log.Err("failed to create collection version", err, "collection", collection)
		}
		return 1, nil
	}

	return r.Get(ctx, collection)
}
