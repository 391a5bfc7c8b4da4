package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testlab/internal/app"
	"testlab/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app    *app.App
	server *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testutil.Config(t)
	cfg.DatabaseAutoMigrate = true
	cfg.SecurityAdminPrincipals = "root"

	a, err := app.NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	server, err := NewServer(a)
	require.NoError(t, err)

	return &testServer{app: a, server: server}
}

func (s *testServer) token(t *testing.T, principal string) string {
	t.Helper()
	token, err := s.app.Tokens.Issue(principal)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["body"] = string(raw)
	}
	return resp.StatusCode, out
}

func errorKind(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	kind, _ := errBody["kind"].(string)
	return kind
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestTestRequestLifecycle(t *testing.T) {
	s := newTestServer(t)
	root := s.token(t, "root")

	status, body := s.do(t, http.MethodPost, "/api/test-requests", "",
		`{"customerName":"Acme Co","phone":"9998887777","testItemType":"cable","company":{"__kind__":"None"}}`)
	require.Equal(t, http.StatusCreated, status)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	status, body = s.do(t, http.MethodGet, "/api/test-requests/"+id, root, "")
	require.Equal(t, http.StatusOK, status)
	option := body["testRequest"].(map[string]any)
	assert.Equal(t, "Some", option["__kind__"])
	record := option["value"].(map[string]any)
	assert.Equal(t, "Acme Co", record["customerName"])
	assert.Equal(t, map[string]any{"__kind__": "None"}, record["company"])
	assert.Equal(t, map[string]any{"__kind__": "None"}, record["preferredDate"])

	status, body = s.do(t, http.MethodGet, "/api/test-requests?limit=10&offset=0", root, "")
	require.Equal(t, http.StatusOK, status)
	page := body["page"].(map[string]any)
	assert.Len(t, page["items"], 1)
	assert.EqualValues(t, 1, page["version"])

	status, body = s.do(t, http.MethodGet, "/api/test-requests/"+id+"/report", root, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["body"], "Test Request Report")

	status, _ = s.do(t, http.MethodDelete, "/api/test-requests/"+id, root, "")
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/test-requests/"+id, root, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"__kind__": "None"}, body["testRequest"])

	status, body = s.do(t, http.MethodDelete, "/api/test-requests/"+id, root, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorKind(body))
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, "member")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
		kind   string
	}{
		{name: "anonymous list", method: http.MethodGet, path: "/api/test-requests", status: http.StatusUnauthorized, kind: "unauthenticated"},
		{name: "guest list", method: http.MethodGet, path: "/api/contact-submissions", token: member, status: http.StatusForbidden, kind: "forbidden"},
		{name: "bad token", method: http.MethodGet, path: "/api/users/me/role", token: "garbage", status: http.StatusUnauthorized, kind: "unauthenticated"},
		{name: "blank name", method: http.MethodPost, path: "/api/contact-submissions", body: `{"name":" ","phone":"1","message":"m"}`, status: http.StatusBadRequest, kind: "validation"},
		{name: "malformed body", method: http.MethodPost, path: "/api/contact-submissions", body: `{`, status: http.StatusBadRequest, kind: "validation"},
		{name: "non-numeric limit", method: http.MethodGet, path: "/api/test-requests?limit=abc", token: s.token(t, "root"), status: http.StatusBadRequest, kind: "validation"},
		{name: "limit too large", method: http.MethodGet, path: "/api/test-requests?limit=5000", token: s.token(t, "root"), status: http.StatusBadRequest, kind: "validation"},
		{name: "unknown route", method: http.MethodGet, path: "/api/nope", status: http.StatusNotFound, kind: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, errorKind(body))
			assert.Equal(t, "error", body["message"])
		})
	}
}

func TestContactSubmissionRoundTrip(t *testing.T) {
	s := newTestServer(t)
	root := s.token(t, "root")

	status, body := s.do(t, http.MethodPost, "/api/contact-submissions", "",
		`{"name":"Jane","phone":"123","email":{"__kind__":"None"},"message":"hi"}`)
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)

	status, body = s.do(t, http.MethodGet, "/api/contact-submissions/"+id, root, "")
	require.Equal(t, http.StatusOK, status)
	record := body["contactSubmission"].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, "Jane", record["name"])
	assert.Equal(t, "123", record["phone"])
	assert.Equal(t, "hi", record["message"])
	assert.Equal(t, map[string]any{"__kind__": "None"}, record["email"])
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice")
	root := s.token(t, "root")

	_, body := s.do(t, http.MethodGet, "/api/users/me/role", "", "")
	assert.Equal(t, "guest", body["role"])

	_, body = s.do(t, http.MethodGet, "/api/users/me/role", alice, "")
	assert.Equal(t, "guest", body["role"])

	status, _ := s.do(t, http.MethodPut, "/api/users/me/profile", alice, `{"name":"Alice"}`)
	require.Equal(t, http.StatusOK, status)

	_, body = s.do(t, http.MethodGet, "/api/users/me/role", alice, "")
	assert.Equal(t, "user", body["role"])

	_, body = s.do(t, http.MethodGet, "/api/users/me/profile", alice, "")
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "Some", profile["__kind__"])
	assert.Equal(t, "Alice", profile["value"].(map[string]any)["name"])

	status, body = s.do(t, http.MethodGet, "/api/users/alice/profile", root, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Some", body["profile"].(map[string]any)["__kind__"])

	status, _ = s.do(t, http.MethodPut, "/api/users/alice/role", alice, `{"role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPut, "/api/users/alice/role", root, `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, status)

	_, body = s.do(t, http.MethodGet, "/api/users/me/admin", alice, "")
	assert.Equal(t, true, body["isAdmin"])

	status, body = s.do(t, http.MethodGet, "/api/admin/roles", root, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["roles"], 2)
}

func TestUserRoutes_DecodePrincipal(t *testing.T) {
	s := newTestServer(t)
	root := s.token(t, "root")
	jane := s.token(t, "jane doe")

	status, _ := s.do(t, http.MethodPut, "/api/users/me/profile", jane, `{"name":"Jane"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/api/users/jane%20doe/profile", root, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Some", body["profile"].(map[string]any)["__kind__"])

	status, _ = s.do(t, http.MethodPut, "/api/users/jane%20doe/role", root, `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, status)

	_, body = s.do(t, http.MethodGet, "/api/users/me/admin", jane, "")
	assert.Equal(t, true, body["isAdmin"])

	status, _ = s.do(t, http.MethodPut, "/api/users/a%2Fb/role", root, `{"role":"user"}`)
	require.Equal(t, http.StatusOK, status)
	role, found, err := s.app.UserRepo.GetRole(context.Background(), "a/b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "user", string(role))
}

func TestTestItemTypes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/test-item-types", "", "")
	require.Equal(t, http.StatusOK, status)
	items := body["testItemTypes"].([]any)
	require.Len(t, items, 4)
	assert.Equal(t, "cable", items[0].(map[string]any)["value"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/users/me/role", "", "")

	status, body := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["body"], "testlab_store_operations_total")
}
