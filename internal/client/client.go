// Package client calls the testlab HTTP API. Every remote failure comes back
// as an *apperr.Error so callers can switch on the kind.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testlab/internal/apperr"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"time"

	"github.com/gofiber/fiber/v2"
)

const DefaultTimeout = 10 * time.Second

// Backend is the remote operation surface of the record store.
type Backend interface {
	SubmitTestRequest(ctx context.Context, request SubmitTestRequestRequest) (string, error)
	SubmitContactForm(ctx context.Context, request SubmitContactFormRequest) (string, error)
	GetTestRequests(ctx context.Context, limit, offset int) (Page[TestRequest], error)
	GetContactSubmissions(ctx context.Context, limit, offset int) (Page[ContactSubmission], error)
	GetTestRequestByID(ctx context.Context, id string) (Optional[TestRequest], error)
	GetContactSubmissionByID(ctx context.Context, id string) (Optional[ContactSubmission], error)
	DeleteTestRequest(ctx context.Context, id string) error
	DeleteContactSubmission(ctx context.Context, id string) error
	GetCallerUserProfile(ctx context.Context) (Optional[UserProfile], error)
	SaveCallerUserProfile(ctx context.Context, request SaveProfileRequest) error
	GetUserProfile(ctx context.Context, principal string) (Optional[UserProfile], error)
	GetCallerUserRole(ctx context.Context) (Role, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	AssignCallerUserRole(ctx context.Context, principal string, role Role) error
}

type HTTPClient struct {
	baseURL string
	token   string
	timeout time.Duration
	log     logger.Logger
}

var _ Backend = (*HTTPClient)(nil)

type Option func(*HTTPClient)

func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = strings.TrimSpace(token) }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func New(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		log:     logger.New("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	code int
	body []byte
	err  error
}

// do sends one request. A cancelled ctx abandons the result; the request
// itself is never retried.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	log := c.log.Function("do")

	if err := ctx.Err(); err != nil {
		return 0, nil, apperr.Transport("request abandoned")
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if payload != nil {
		agent.JSON(payload)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, apperr.Transport(fmt.Sprintf("invalid request: %v", err))
	}

	done := make(chan response, 1)
	go func() {
		code, body, errs := agent.Bytes()
		if len(errs) > 0 {
			done <- response{err: errs[0]}
			return
		}
		done <- response{code: code, body: body}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, apperr.Transport("request abandoned")
	case resp := <-done:
		if resp.err != nil {
			log.Debug("request failed", "method", method, "path", path, "error", resp.err)
			return 0, nil, apperr.Transport("not available: " + resp.err.Error())
		}
		if resp.code >= fiber.StatusBadRequest {
			return resp.code, nil, decodeError(resp.code, resp.body)
		}
		return resp.code, resp.body, nil
	}
}

func decodeError(code int, body []byte) error {
	var envelope struct {
		Error *apperr.Error `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Kind != "" {
		return envelope.Error
	}

	switch code {
	case fiber.StatusUnauthorized:
		return apperr.Unauthenticated("unauthorized")
	case fiber.StatusForbidden:
		return apperr.Forbidden("forbidden")
	case fiber.StatusNotFound:
		return apperr.NotFound("not found")
	case fiber.StatusServiceUnavailable, fiber.StatusBadGateway, fiber.StatusGatewayTimeout, fiber.StatusTooManyRequests:
		return apperr.Transport(fmt.Sprintf("not available: status %d", code))
	}
	if code < fiber.StatusInternalServerError {
		return apperr.Validation(fmt.Sprintf("request rejected: status %d", code))
	}
	return apperr.Internal(fmt.Sprintf("server error: status %d", code))
}

func (c *HTTPClient) call(ctx context.Context, method, path string, payload, dest any) error {
	_, body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperr.Internal(fmt.Sprintf("malformed response: %v", err))
	}
	return nil
}

func pagePath(base string, limit, offset int) string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return base + "?" + query.Encode()
}

func idPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

func (c *HTTPClient) SubmitTestRequest(ctx context.Context, request SubmitTestRequestRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.call(ctx, fiber.MethodPost, "/api/test-requests", request, &out)
	return out.ID, err
}

func (c *HTTPClient) SubmitContactForm(ctx context.Context, request SubmitContactFormRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.call(ctx, fiber.MethodPost, "/api/contact-submissions", request, &out)
	return out.ID, err
}

func (c *HTTPClient) GetTestRequests(ctx context.Context, limit, offset int) (Page[TestRequest], error) {
	var out struct {
		Page Page[TestRequest] `json:"page"`
	}
	err := c.call(ctx, fiber.MethodGet, pagePath("/api/test-requests", limit, offset), nil, &out)
	return out.Page, err
}

func (c *HTTPClient) GetContactSubmissions(ctx context.Context, limit, offset int) (Page[ContactSubmission], error) {
	var out struct {
		Page Page[ContactSubmission] `json:"page"`
	}
	err := c.call(ctx, fiber.MethodGet, pagePath("/api/contact-submissions", limit, offset), nil, &out)
	return out.Page, err
}

func (c *HTTPClient) GetTestRequestByID(ctx context.Context, id string) (Optional[TestRequest], error) {
	var out struct {
		TestRequest Optional[TestRequest] `json:"testRequest"`
	}
	err := c.call(ctx, fiber.MethodGet, idPath("/api/test-requests", id), nil, &out)
	return out.TestRequest, err
}

func (c *HTTPClient) GetContactSubmissionByID(ctx context.Context, id string) (Optional[ContactSubmission], error) {
	var out struct {
		ContactSubmission Optional[ContactSubmission] `json:"contactSubmission"`
	}
	err := c.call(ctx, fiber.MethodGet, idPath("/api/contact-submissions", id), nil, &out)
	return out.ContactSubmission, err
}

func (c *HTTPClient) DeleteTestRequest(ctx context.Context, id string) error {
	return c.call(ctx, fiber.MethodDelete, idPath("/api/test-requests", id), nil, nil)
}

func (c *HTTPClient) DeleteContactSubmission(ctx context.Context, id string) error {
	return c.call(ctx, fiber.MethodDelete, idPath("/api/contact-submissions", id), nil, nil)
}

func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (Optional[UserProfile], error) {
	var out struct {
		Profile Optional[UserProfile] `json:"profile"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/users/me/profile", nil, &out)
	return out.Profile, err
}

func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, request SaveProfileRequest) error {
	return c.call(ctx, fiber.MethodPut, "/api/users/me/profile", request, nil)
}

func (c *HTTPClient) GetUserProfile(ctx context.Context, principal string) (Optional[UserProfile], error) {
	var out struct {
		Profile Optional[UserProfile] `json:"profile"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/users/"+url.PathEscape(principal)+"/profile", nil, &out)
	return out.Profile, err
}

func (c *HTTPClient) GetCallerUserRole(ctx context.Context) (Role, error) {
	var out struct {
		Role Role `json:"role"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/users/me/role", nil, &out)
	return out.Role, err
}

func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out struct {
		IsAdmin bool `json:"isAdmin"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/users/me/admin", nil, &out)
	return out.IsAdmin, err
}

func (c *HTTPClient) AssignCallerUserRole(ctx context.Context, principal string, role Role) error {
	return c.call(ctx, fiber.MethodPut, "/api/users/"+url.PathEscape(principal)+"/role", AssignRoleRequest{Role: role}, nil)
}

// TestRequestReport fetches the printable HTML report.
func (c *HTTPClient) TestRequestReport(ctx context.Context, id string) ([]byte, error) {
	_, body, err := c.do(ctx, fiber.MethodGet, idPath("/api/test-requests", id)+"/report", nil)
	return body, err
}

func (c *HTTPClient) TestItemTypes(ctx context.Context) ([]TestItemType, error) {
	var out struct {
		TestItemTypes []TestItemType `json:"testItemTypes"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/test-item-types", nil, &out)
	return out.TestItemTypes, err
}

func (c *HTTPClient) ListRoles(ctx context.Context) ([]UserRole, error) {
	var out struct {
		Roles []UserRole `json:"roles"`
	}
	err := c.call(ctx, fiber.MethodGet, "/api/admin/roles", nil, &out)
	return out.Roles, err
}

type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
}

func (c *HTTPClient) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.call(ctx, fiber.MethodGet, "/api/health", nil, &out)
	return out, err
}
