package repositories

import (
	"context"
	"sync"
	"testing"
	. "testlab/internal/models"
	"testlab/internal/services"
	"testlab/internal/testutil"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache keeps valkey SET NX semantics for Fill. beforeFill runs once,
// between the database read and the fill, to interleave a concurrent writer.
type memoryCache[T any] struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry[T]
	ttls       map[string]time.Duration
	beforeFill func()
}

func newMemoryCache[T any]() *memoryCache[T] {
	return &memoryCache[T]{
		entries: map[string]cacheEntry[T]{},
		ttls:    map[string]time.Duration{},
	}
}

func (c *memoryCache[T]) Get(_ context.Context, key string) (cacheEntry[T], bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok, nil
}

func (c *memoryCache[T]) Fill(_ context.Context, key string, record T) error {
	c.mu.Lock()
	hook := c.beforeFill
	c.beforeFill = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = cacheEntry[T]{Record: record}
	}
	return nil
}

func (c *memoryCache[T]) Tombstone(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[T]{Tombstone: true}
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache[T]) entry(key string) (cacheEntry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func TestTestRequestRepository_CacheServesRecord(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTestRequest(db).(*testRequestRepository)
	cache := newMemoryCache[TestRequest]()
	repo.cache = cache
	ctx := context.Background()
	created := seedTestRequests(t, repo, 1)[0]

	got, found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)

	entry, ok := cache.entry(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, entry.Record)

	require.NoError(t, db.SQLWithContext(ctx).Exec("DELETE FROM test_requests").Error)
	got, found, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
}

func TestTestRequestRepository_ReadRacingDeleteCannotResurrect(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTestRequest(db).(*testRequestRepository)
	cache := newMemoryCache[TestRequest]()
	repo.cache = cache
	tx := services.NewTransactionService(db)
	ctx := context.Background()
	created := seedTestRequests(t, repo, 1)[0]

	cache.beforeFill = func() {
		err := tx.Execute(ctx, func(txCtx context.Context) error {
			_, err := repo.Delete(txCtx, created.ID)
			return err
		})
		require.NoError(t, err)
		repo.Evict(ctx, created.ID)
	}

	_, found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found)

	entry, ok := cache.entry(created.ID)
	require.True(t, ok)
	assert.True(t, entry.Tombstone)

	_, found, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTestRequestRepository_DeleteInTransactionWaitsForEvict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTestRequest(db).(*testRequestRepository)
	cache := newMemoryCache[TestRequest]()
	repo.cache = cache
	tx := services.NewTransactionService(db)
	ctx := context.Background()
	created := seedTestRequests(t, repo, 1)[0]

	_, found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)

	err = tx.Execute(ctx, func(txCtx context.Context) error {
		deleted, err := repo.Delete(txCtx, created.ID)
		require.NoError(t, err)
		require.True(t, deleted)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entry, ok := cache.entry(created.ID)
	require.True(t, ok)
	assert.False(t, entry.Tombstone)

	got, found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)
}

func TestContactSubmissionRepository_DeleteOutsideTransactionTombstones(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewContactSubmission(db).(*contactSubmissionRepository)
	cache := newMemoryCache[ContactSubmission]()
	repo.cache = cache
	ctx := context.Background()

	submission := ContactSubmission{Name: "Jane", Phone: "555", Message: "Hello", SubmittedAt: 1}
	require.NoError(t, repo.Create(ctx, &submission))
	_, found, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.True(t, found)

	deleted, err := repo.Delete(ctx, submission.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	entry, ok := cache.entry(submission.ID)
	require.True(t, ok)
	assert.True(t, entry.Tombstone)
	assert.Equal(t, CONTACT_SUBMISSION_CACHE_EXPIRY, cache.ttls[submission.ID])

	_, found, err = repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserRepository_ProfileCacheSkipsTransactions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUser(db).(*userRepository)
	cache := newMemoryCache[UserProfile]()
	repo.cache = cache
	tx := services.NewTransactionService(db)
	ctx := context.Background()

	err := tx.Execute(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.SaveProfile(txCtx, &UserProfile{Principal: "alice", Name: "Alice"}))
		profile, found, err := repo.GetProfile(txCtx, "alice")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Alice", profile.Name)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, ok := cache.entry("alice")
	assert.False(t, ok)

	_, found, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserRepository_ReadRacingSaveCannotRestoreOldProfile(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUser(db).(*userRepository)
	cache := newMemoryCache[UserProfile]()
	repo.cache = cache
	ctx := context.Background()
	require.NoError(t, repo.SaveProfile(ctx, &UserProfile{Principal: "alice", Name: "Alice"}))
	delete(cache.entries, "alice")

	cache.beforeFill = func() {
		require.NoError(t, repo.SaveProfile(ctx, &UserProfile{Principal: "alice", Name: "Alice B"}))
	}

	profile, found, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice", profile.Name)

	entry, ok := cache.entry("alice")
	require.True(t, ok)
	assert.True(t, entry.Tombstone)
	assert.Equal(t, userProfileRewriteWindow, cache.ttls["alice"])

	profile, found, err = repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice B", profile.Name)
}
