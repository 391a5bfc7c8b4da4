package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testlab/config"
	"testlab/internal/events"
	. "testlab/internal/models"
	"testlab/internal/testutil"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicClock_StrictlyIncreasing(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	clock := &MonotonicClock{wall: func() time.Time { return fixed }}

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()

	assert.Equal(t, fixed.UnixNano(), first)
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestMonotonicClock_WallClockGoesBackwards(t *testing.T) {
	wall := time.Unix(1700000000, 0)
	clock := &MonotonicClock{wall: func() time.Time { return wall }}

	before := clock.Now()
	wall = wall.Add(-time.Hour)
	after := clock.Now()

	assert.Greater(t, after, before)
}

func TestMonotonicClock_Concurrent(t *testing.T) {
	clock := NewMonotonicClock()

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				v := clock.Now()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 800)
}

func TestTransactionService_CommitAndRollback(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewTransactionService(db)
	ctx := context.Background()

	err := service.Execute(ctx, func(txCtx context.Context) error {
		tx, ok := GetTransaction(txCtx)
		require.True(t, ok)
		return tx.Create(&ContactSubmission{Name: "a", Phone: "1", Message: "m", SubmittedAt: 1}).Error
	})
	require.NoError(t, err)

	failure := errors.New("abort")
	err = service.Execute(ctx, func(txCtx context.Context) error {
		tx, _ := GetTransaction(txCtx)
		require.NoError(t, tx.Create(&ContactSubmission{Name: "b", Phone: "2", Message: "m", SubmittedAt: 2}).Error)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	var count int64
	require.NoError(t, db.SQL.Model(&ContactSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionService_NestedJoinsOuter(t *testing.T) {
	db := testutil.NewDB(t)
	service := NewTransactionService(db)

	err := service.Execute(context.Background(), func(outer context.Context) error {
		outerTx, _ := GetTransaction(outer)
		return service.Execute(outer, func(inner context.Context) error {
			innerTx, _ := GetTransaction(inner)
			assert.Same(t, outerTx, innerTx)
			return nil
		})
	})
	require.NoError(t, err)

	_, ok := GetTransaction(context.Background())
	assert.False(t, ok)
}

func TestCacheInvalidationService_PublishesEvent(t *testing.T) {
	bus := events.New(nil, config.Config{})
	t.Cleanup(func() { _ = bus.Close() })

	var received events.Event
	bus.Subscribe(events.ChannelInvalidation, func(e events.Event) { received = e })

	service := NewCacheInvalidationService(bus)
	err := service.InvalidateCollection(context.Background(), CollectionTestRequests, 3, ActionDelete, "abc", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, events.TypeInvalidate, received.Type)
	assert.Equal(t, ActionDelete, received.Action)
	assert.Equal(t, "admin-1", received.UserID)
	assert.Equal(t, CollectionTestRequests, received.Data["collection"])
	assert.Equal(t, int64(3), received.Data["version"])
	assert.Equal(t, "abc", received.Data["id"])
}
