package client

import (
	"context"
	"net"
	"testing"
	"testlab/internal/app"
	"testlab/internal/apperr"
	"testlab/internal/events"
	"testlab/internal/handlers"
	. "testlab/internal/models"
	"testlab/internal/testutil"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopback struct {
	app     *app.App
	baseURL string
}

func startServer(t *testing.T) *loopback {
	t.Helper()
	cfg := testutil.Config(t)
	cfg.DatabaseAutoMigrate = true
	cfg.SecurityAdminPrincipals = "root"

	a, err := app.NewWithConfig(cfg)
	require.NoError(t, err)

	server, err := handlers.NewServer(a)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Listener(ln) }()

	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = a.Close()
	})

	return &loopback{app: a, baseURL: "http://" + ln.Addr().String()}
}

func (l *loopback) client(t *testing.T, principal string) *HTTPClient {
	t.Helper()
	if principal == "" {
		return New(l.baseURL, WithTimeout(5*time.Second))
	}
	token, err := l.app.Tokens.Issue(principal)
	require.NoError(t, err)
	return New(l.baseURL, WithToken(token), WithTimeout(5*time.Second))
}

func TestHTTPClient_TestRequests(t *testing.T) {
	server := startServer(t)
	ctx := context.Background()
	anonymous := server.client(t, "")
	root := server.client(t, "root")

	id, err := anonymous.SubmitTestRequest(ctx, SubmitTestRequestRequest{
		CustomerName: "Acme Co",
		Phone:        "9998887777",
		TestItemType: "cable",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	result, err := root.GetTestRequestByID(ctx, id)
	require.NoError(t, err)
	testRequest, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, "Acme Co", testRequest.CustomerName)
	assert.False(t, testRequest.Company.IsSome())
	assert.False(t, testRequest.PreferredDate.IsSome())

	page, err := root.GetTestRequests(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, testRequest, page.Items[0])

	report, err := root.TestRequestReport(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Acme Co")

	_, err = anonymous.GetTestRequests(ctx, 50, 0)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	err = server.client(t, "someone").DeleteTestRequest(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, root.DeleteTestRequest(ctx, id))
	err = root.DeleteTestRequest(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	result, err = root.GetTestRequestByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, result.IsSome())

	_, err = root.GetTestRequests(ctx, -1, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestHTTPClient_ContactAndUsers(t *testing.T) {
	server := startServer(t)
	ctx := context.Background()
	root := server.client(t, "root")
	alice := server.client(t, "alice")

	id, err := alice.SubmitContactForm(ctx, SubmitContactFormRequest{Name: "Jane", Phone: "123", Email: None[string](), Message: "hi"})
	require.NoError(t, err)

	result, err := root.GetContactSubmissionByID(ctx, id)
	require.NoError(t, err)
	submission, ok := result.Get()
	require.True(t, ok)
	assert.Equal(t, "Jane", submission.Name)
	assert.False(t, submission.Email.IsSome())

	page, err := root.GetContactSubmissions(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	require.NoError(t, root.DeleteContactSubmission(ctx, id))

	role, err := alice.GetCallerUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, role)

	require.NoError(t, alice.SaveCallerUserProfile(ctx, SaveProfileRequest{Name: "Alice"}))
	profile, err := alice.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.OrElse(UserProfile{}).Name)

	profile, err = root.GetUserProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, profile.IsSome())

	require.NoError(t, root.AssignCallerUserRole(ctx, "alice", RoleAdmin))
	isAdmin, err := alice.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	types, err := alice.TestItemTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 4)

	health, err := alice.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestHTTPClient_PrincipalWithReservedCharacters(t *testing.T) {
	server := startServer(t)
	ctx := context.Background()
	root := server.client(t, "root")
	jane := server.client(t, "jane doé")

	require.NoError(t, jane.SaveCallerUserProfile(ctx, SaveProfileRequest{Name: "Jane"}))

	profile, err := root.GetUserProfile(ctx, "jane doé")
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.OrElse(UserProfile{}).Name)

	require.NoError(t, root.AssignCallerUserRole(ctx, "jane doé", RoleAdmin))
	isAdmin, err := jane.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestHTTPClient_TransportErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := New("http://"+addr, WithTimeout(time.Second))
	_, err = c.GetCallerUserRole(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindTransport))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.IsCallerAdmin(ctx)
	assert.True(t, apperr.Is(err, apperr.KindTransport))
}

func TestHTTPClient_WatchInvalidations(t *testing.T) {
	server := startServer(t)
	root := server.client(t, "root")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 8)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- root.WatchInvalidations(ctx, func(e events.Event) { received <- e })
	}()

	select {
	case e := <-received:
		assert.Equal(t, "connected", e.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no greeting from server")
	}

	_, err := server.client(t, "").SubmitContactForm(context.Background(), SubmitContactFormRequest{Name: "Jane", Phone: "1", Message: "hi"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, events.TypeInvalidate, e.Type)
		assert.Equal(t, CollectionContactSubmissions, e.Data["collection"])
	case <-time.After(5 * time.Second):
		t.Fatal("no invalidation event")
	}

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	err = server.client(t, "someone").WatchInvalidations(context.Background(), func(events.Event) {})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
