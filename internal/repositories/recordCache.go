package repositories

import (
	"context"
	"testlab/internal/database"
	"time"
)

// cacheEntry wraps a cached row. A tombstone marks a key that readers must
// not fill from the database until it expires.
type cacheEntry[T any] struct {
	Tombstone bool `json:"tombstone,omitempty"`
	Record    T    `json:"record"`
}

type recordCache[T any] interface {
	Get(ctx context.Context, key string) (cacheEntry[T], bool, error)
	// Fill stores a record read from the database unless the key already
	// holds a value or a tombstone.
	Fill(ctx context.Context, key string, record T) error
	Tombstone(ctx context.Context, key string, ttl time.Duration) error
}

type valkeyRecordCache[T any] struct {
	client database.CacheClient
	prefix string
	ttl    time.Duration
}

func newRecordCache[T any](client database.CacheClient, prefix string, ttl time.Duration) recordCache[T] {
	return valkeyRecordCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c valkeyRecordCache[T]) Get(ctx context.Context, key string) (cacheEntry[T], bool, error) {
	var entry cacheEntry[T]
	found, err := c.builder(ctx, key).Get(&entry)
	return entry, found, err
}

func (c valkeyRecordCache[T]) Fill(ctx context.Context, key string, record T) error {
	_, err := c.builder(ctx, key).
		WithStruct(cacheEntry[T]{Record: record}).
		WithTTL(c.ttl).
		SetIfAbsent()
	return err
}

func (c valkeyRecordCache[T]) Tombstone(ctx context.Context, key string, ttl time.Duration) error {
	return c.builder(ctx, key).
		WithStruct(cacheEntry[T]{Tombstone: true}).
		WithTTL(ttl).
		Set()
}

func (c valkeyRecordCache[T]) builder(ctx context.Context, key string) *database.CacheBuilder {
	return database.NewCacheBuilder(c.client, key).
		WithPrefix(c.prefix).
		WithContext(ctx)
}
