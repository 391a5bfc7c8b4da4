package query

import (
	"context"
	"sync"
	"testlab/internal/client"
	"testlab/internal/events"
	. "testlab/internal/models"
)

type MutationStatus string

const (
	StatusPending MutationStatus = "pending"
	StatusSuccess MutationStatus = "success"
	StatusError   MutationStatus = "error"
)

// Mutation tracks one write. The write keeps running after the caller's
// context is cancelled so a started submission is never left half-known.
type Mutation[T any] struct {
	mu     sync.Mutex
	status MutationStatus
	value  T
	err    error
	done   chan struct{}
}

func (m *Mutation[T]) Status() MutationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mutation[T]) Done() <-chan struct{} {
	return m.done
}

// Result returns the outcome once the mutation has settled.
func (m *Mutation[T]) Result() (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.err
}

// Wait blocks until the mutation settles or ctx ends. Cancelling ctx does
// not cancel the write.
func (m *Mutation[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-m.done:
		return m.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (m *Mutation[T]) settle(value T, err error) {
	m.mu.Lock()
	m.value, m.err = value, err
	if err != nil {
		m.status = StatusError
	} else {
		m.status = StatusSuccess
	}
	m.mu.Unlock()
	close(m.done)
}

func mutate[T any](
	ctx context.Context,
	q *Client,
	invalidates []string,
	run func(ctx context.Context, backend client.Backend) (T, error),
) *Mutation[T] {
	m := &Mutation[T]{status: StatusPending, done: make(chan struct{})}

	q.mu.Lock()
	backend := q.backend
	q.mu.Unlock()

	var zero T
	if backend == nil {
		m.settle(zero, errNotAvailable)
		return m
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		value, err := run(ctx, backend)
		if err != nil {
			q.log.Function("mutate").Debug("mutation failed", "error", err)
			m.settle(zero, err)
			return
		}
		q.Invalidate(invalidates...)
		m.settle(value, nil)
	}()
	return m
}

var profileKeys = []string{KeyCurrentUserProfile, KeyUserProfiles, KeyCallerRole, KeyIsAdmin}

func (q *Client) SubmitTestRequest(ctx context.Context, request SubmitTestRequestRequest) *Mutation[string] {
	return mutate(ctx, q, []string{KeyTestRequests},
		func(ctx context.Context, b client.Backend) (string, error) {
			return b.SubmitTestRequest(ctx, request)
		})
}

func (q *Client) SubmitContactForm(ctx context.Context, request SubmitContactFormRequest) *Mutation[string] {
	return mutate(ctx, q, []string{KeyContactSubmissions},
		func(ctx context.Context, b client.Backend) (string, error) {
			return b.SubmitContactForm(ctx, request)
		})
}

func (q *Client) DeleteTestRequest(ctx context.Context, id string) *Mutation[struct{}] {
	return mutate(ctx, q, []string{KeyTestRequests},
		func(ctx context.Context, b client.Backend) (struct{}, error) {
			return struct{}{}, b.DeleteTestRequest(ctx, id)
		})
}

func (q *Client) DeleteContactSubmission(ctx context.Context, id string) *Mutation[struct{}] {
	return mutate(ctx, q, []string{KeyContactSubmissions},
		func(ctx context.Context, b client.Backend) (struct{}, error) {
			return struct{}{}, b.DeleteContactSubmission(ctx, id)
		})
}

func (q *Client) SaveCallerProfile(ctx context.Context, request SaveProfileRequest) *Mutation[struct{}] {
	return mutate(ctx, q, profileKeys,
		func(ctx context.Context, b client.Backend) (struct{}, error) {
			return struct{}{}, b.SaveCallerUserProfile(ctx, request)
		})
}

func (q *Client) AssignRole(ctx context.Context, principal string, role Role) *Mutation[struct{}] {
	return mutate(ctx, q, []string{KeyCallerRole, KeyIsAdmin, KeyUserProfiles},
		func(ctx context.Context, b client.Backend) (struct{}, error) {
			return struct{}{}, b.AssignCallerUserRole(ctx, principal, role)
		})
}

// Watcher streams server events; *client.HTTPClient implements it.
type Watcher interface {
	WatchInvalidations(ctx context.Context, handler func(events.Event)) error
}

// Watch applies server pushes to the cache until ctx ends.
func (q *Client) Watch(ctx context.Context, watcher Watcher) error {
	return watcher.WatchInvalidations(ctx, q.HandleEvent)
}
