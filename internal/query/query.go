// Package query caches reads against a client.Backend and drops the cached
// entries of a collection whenever a mutation on it succeeds.
package query

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testlab/internal/apperr"
	"testlab/internal/client"
	"testlab/internal/events"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"golang.org/x/sync/singleflight"
)

// Cache key prefixes. A key is the prefix plus the call's parameters.
const (
	KeyTestRequests       = CollectionTestRequests
	KeyContactSubmissions = CollectionContactSubmissions
	KeyCurrentUserProfile = "currentUserProfile"
	KeyUserProfiles       = "userProfiles"
	KeyIsAdmin            = "isAdmin"
	KeyCallerRole         = "callerRole"
)

type entry struct {
	prefix string
	value  any
}

type Client struct {
	mu          sync.Mutex
	backend     client.Backend
	entries     map[string]entry
	generations map[string]uint64
	group       singleflight.Group
	log         logger.Logger
}

func New() *Client {
	return &Client{
		entries:     make(map[string]entry),
		generations: make(map[string]uint64),
		log:         logger.New("query"),
	}
}

// Connect installs the backend and drops anything cached for a previous one.
func (q *Client) Connect(backend client.Backend) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.backend = backend
	q.entries = make(map[string]entry)
	for prefix := range q.generations {
		q.generations[prefix]++
	}
}

func (q *Client) Connected() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.backend != nil
}

// Invalidate drops every entry under the given prefixes. Fetches already in
// flight for those prefixes will not store their results.
func (q *Client) Invalidate(prefixes ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, prefix := range prefixes {
		q.generations[prefix]++
		for key, e := range q.entries {
			if e.prefix == prefix {
				delete(q.entries, key)
			}
		}
	}
}

// HandleEvent applies a server push to the cache.
func (q *Client) HandleEvent(event events.Event) {
	switch event.Type {
	case events.TypeInvalidate:
		if collection, ok := event.Data["collection"].(string); ok && collection != "" {
			q.Invalidate(collection)
		}
	case events.TypeAdmin:
		q.Invalidate(KeyCallerRole, KeyIsAdmin, KeyUserProfiles)
	}
}

// Cached reports whether key currently holds a value.
func (q *Client) Cached(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.entries[key]
	return ok
}

func key(prefix string, params ...any) string {
	if len(params) == 0 {
		return prefix
	}
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, prefix)
	for _, param := range params {
		parts = append(parts, fmt.Sprint(param))
	}
	return strings.Join(parts, ":")
}

// read serves key from the cache or fetches it once for every concurrent
// caller. Without a backend it returns empty. The shared fetch does not
// inherit any one caller's cancellation; each caller stops waiting on its
// own ctx.
func read[T any](
	ctx context.Context,
	q *Client,
	prefix, cacheKey string,
	empty T,
	fetch func(ctx context.Context, backend client.Backend) (T, error),
) (T, error) {
	q.mu.Lock()
	backend := q.backend
	if backend == nil {
		q.mu.Unlock()
		return empty, nil
	}
	if e, ok := q.entries[cacheKey]; ok {
		q.mu.Unlock()
		return e.value.(T), nil
	}
	generation := q.generations[prefix]
	q.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	flightKey := fmt.Sprintf("%s#%d", cacheKey, generation)
	results := q.group.DoChan(flightKey, func() (any, error) {
		value, err := fetch(fetchCtx, backend)
		if err != nil {
			return nil, err
		}

		q.mu.Lock()
		if q.backend == backend && q.generations[prefix] == generation {
			q.entries[cacheKey] = entry{prefix: prefix, value: value}
		}
		q.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return empty, errAbandoned
	case result := <-results:
		if result.Err != nil {
			return empty, result.Err
		}
		return result.Val.(T), nil
	}
}

func clonePage[T any](page Page[T], err error) (Page[T], error) {
	page.Items = slices.Clone(page.Items)
	return page, err
}

func (q *Client) TestRequests(ctx context.Context, limit, offset int) (Page[TestRequest], error) {
	return clonePage[TestRequest](read(ctx, q, KeyTestRequests, key(KeyTestRequests, limit, offset),
		Page[TestRequest]{Items: []TestRequest{}, Limit: limit, Offset: offset},
		func(ctx context.Context, b client.Backend) (Page[TestRequest], error) {
			return b.GetTestRequests(ctx, limit, offset)
		}))
}

func (q *Client) ContactSubmissions(ctx context.Context, limit, offset int) (Page[ContactSubmission], error) {
	return clonePage[ContactSubmission](read(ctx, q, KeyContactSubmissions, key(KeyContactSubmissions, limit, offset),
		Page[ContactSubmission]{Items: []ContactSubmission{}, Limit: limit, Offset: offset},
		func(ctx context.Context, b client.Backend) (Page[ContactSubmission], error) {
			return b.GetContactSubmissions(ctx, limit, offset)
		}))
}

func (q *Client) TestRequest(ctx context.Context, id string) (Optional[TestRequest], error) {
	return read(ctx, q, KeyTestRequests, key(KeyTestRequests, "id", id), None[TestRequest](),
		func(ctx context.Context, b client.Backend) (Optional[TestRequest], error) {
			return b.GetTestRequestByID(ctx, id)
		})
}

func (q *Client) ContactSubmission(ctx context.Context, id string) (Optional[ContactSubmission], error) {
	return read(ctx, q, KeyContactSubmissions, key(KeyContactSubmissions, "id", id), None[ContactSubmission](),
		func(ctx context.Context, b client.Backend) (Optional[ContactSubmission], error) {
			return b.GetContactSubmissionByID(ctx, id)
		})
}

func (q *Client) CallerProfile(ctx context.Context) (Optional[UserProfile], error) {
	return read(ctx, q, KeyCurrentUserProfile, key(KeyCurrentUserProfile), None[UserProfile](),
		func(ctx context.Context, b client.Backend) (Optional[UserProfile], error) {
			return b.GetCallerUserProfile(ctx)
		})
}

func (q *Client) UserProfile(ctx context.Context, principal string) (Optional[UserProfile], error) {
	return read(ctx, q, KeyUserProfiles, key(KeyUserProfiles, principal), None[UserProfile](),
		func(ctx context.Context, b client.Backend) (Optional[UserProfile], error) {
			return b.GetUserProfile(ctx, principal)
		})
}

func (q *Client) CallerRole(ctx context.Context) (Role, error) {
	return read(ctx, q, KeyCallerRole, key(KeyCallerRole), RoleGuest,
		func(ctx context.Context, b client.Backend) (Role, error) {
			return b.GetCallerUserRole(ctx)
		})
}

func (q *Client) IsAdmin(ctx context.Context) (bool, error) {
	return read(ctx, q, KeyIsAdmin, key(KeyIsAdmin), false,
		func(ctx context.Context, b client.Backend) (bool, error) {
			return b.IsCallerAdmin(ctx)
		})
}

var (
	errNotAvailable = apperr.Transport("not available")
	errAbandoned    = apperr.Transport("request abandoned")
)
