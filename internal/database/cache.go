package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const defaultCacheTimeout = 2 * time.Second

// CacheBuilder assembles a single cache operation. A nil client turns every
// operation into a no-op miss.
type CacheBuilder struct {
	client CacheClient
	key    string
	prefix string
	value  any
	ttl    time.Duration
	ctx    context.Context
}

func NewCacheBuilder(client CacheClient, key any) *CacheBuilder {
	return &CacheBuilder{
		client: client,
		key:    fmt.Sprint(key),
	}
}

func (b *CacheBuilder) WithPrefix(prefix string) *CacheBuilder {
	b.prefix = prefix
	return b
}

func (b *CacheBuilder) WithStruct(value any) *CacheBuilder {
	b.value = value
	return b
}

func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.ttl = ttl
	return b
}

func (b *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	b.ctx = ctx
	return b
}

func (b *CacheBuilder) Key() string {
	if b.prefix == "" {
		return b.key
	}
	return b.prefix + ":" + b.key
}

func (b *CacheBuilder) context() (context.Context, context.CancelFunc) {
	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultCacheTimeout)
}

func (b *CacheBuilder) Set() error {
	_, err := b.set(false)
	return err
}

// SetIfAbsent stores the value only when the key is missing and reports
// whether it was written.
func (b *CacheBuilder) SetIfAbsent() (bool, error) {
	return b.set(true)
}

func (b *CacheBuilder) set(onlyIfAbsent bool) (bool, error) {
	if b.client == nil {
		return false, nil
	}

	payload, err := json.Marshal(b.value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value %s: %w", b.Key(), err)
	}

	ctx, cancel := b.context()
	defer cancel()

	seconds := int64(b.ttl / time.Second)
	if b.ttl > 0 && seconds < 1 {
		seconds = 1
	}

	value := b.client.B().Set().Key(b.Key()).Value(string(payload))
	var cmd valkey.Completed
	switch {
	case onlyIfAbsent && seconds > 0:
		cmd = value.Nx().ExSeconds(seconds).Build()
	case onlyIfAbsent:
		cmd = value.Nx().Build()
	case seconds > 0:
		cmd = value.ExSeconds(seconds).Build()
	default:
		cmd = value.Build()
	}

	err = b.client.Do(ctx, cmd).Error()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get decodes the cached value into dest and reports whether it was there.
func (b *CacheBuilder) Get(dest any) (bool, error) {
	if b.client == nil {
		return false, nil
	}

	ctx, cancel := b.context()
	defer cancel()

	payload, err := b.client.Do(ctx, b.client.B().Get().Key(b.Key()).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value %s: %w", b.Key(), err)
	}

	return true, nil
}

func (b *CacheBuilder) Delete() error {
	if b.client == nil {
		return nil
	}

	ctx, cancel := b.context()
	defer cancel()

	return b.client.Do(ctx, b.client.B().Del().Key(b.Key()).Build()).Error()
}
