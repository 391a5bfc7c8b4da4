package services

import (
	"context"
	"testlab/internal/database"
	"testlab/internal/logger"

	"gorm.io/gorm"
)

type txContextKey struct{}

type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute runs fn inside a transaction carried by txCtx. Nested calls join
// the outer transaction.
func (s *TransactionService) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := GetTransaction(ctx); ok {
		return fn(ctx)
	}

	return s.db.SQLWithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}
