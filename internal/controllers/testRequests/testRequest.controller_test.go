package testRequestController

import (
	"context"
	"testing"
	"testlab/config"
	"testlab/internal/access"
	"testlab/internal/apperr"
	"testlab/internal/events"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"testlab/internal/reports"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"testlab/internal/testutil"
	"strings"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = NewCaller("admin-1")
	user  = NewCaller("user-1")
	guest = AnonymousCaller()
)

type fixture struct {
	controller *TestRequestController
	metrics    *metrics.Metrics
	events     []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	ctx := context.Background()

	users := repositories.NewUser(db)
	require.NoError(t, users.SetRole(ctx, admin.Principal, RoleAdmin, "system"))
	require.NoError(t, users.SetRole(ctx, user.Principal, RoleUser, "system"))

	bus := events.New(nil, config.Config{})
	t.Cleanup(func() { _ = bus.Close() })

	renderer, err := reports.NewRenderer(reports.CompanyFromConfig(testutil.Config(t)), time.UTC)
	require.NoError(t, err)

	f := &fixture{metrics: metrics.New()}
	bus.Subscribe(events.ChannelInvalidation, func(e events.Event) { f.events = append(f.events, e) })

	f.controller = New(
		repositories.NewTestRequest(db),
		repositories.NewCollectionVersion(db),
		access.New(users),
		services.NewTransactionService(db),
		services.NewCacheInvalidationService(bus),
		services.NewMonotonicClock(),
		renderer,
		f.metrics,
	)
	return f
}

func acmeRequest() SubmitTestRequestRequest {
	return SubmitTestRequestRequest{
		CustomerName: "Acme Co",
		Phone:        "9998887777",
		TestItemType: "cable",
	}
}

func TestSubmit_AcmeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Submit(ctx, guest, acmeRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	result, err := f.controller.Get(ctx, admin, id)
	require.NoError(t, err)
	testRequest, ok := result.Get()
	require.True(t, ok)

	assert.Equal(t, id, testRequest.ID)
	assert.Equal(t, "Acme Co", testRequest.CustomerName)
	assert.Equal(t, "9998887777", testRequest.Phone)
	assert.Equal(t, "cable", testRequest.TestItemType)
	assert.False(t, testRequest.Company.IsSome())
	assert.False(t, testRequest.Email.IsSome())
	assert.False(t, testRequest.Standards.IsSome())
	assert.False(t, testRequest.Message.IsSome())
	assert.False(t, testRequest.PreferredDate.IsSome())
	assert.Positive(t, testRequest.SubmittedAt)
}

func TestSubmit_StoresOptionalFieldsAndPastPreferredDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	request := acmeRequest()
	request.CustomerName = "  Acme Co  "
	request.Company = Some("Acme Industries")
	request.Email = Some("   ")
	request.Standards = Some(" IS 694 ")
	request.PreferredDate = Some(past)

	id, err := f.controller.Submit(ctx, user, request)
	require.NoError(t, err)

	result, err := f.controller.Get(ctx, admin, id)
	require.NoError(t, err)
	testRequest, _ := result.Get()

	assert.Equal(t, "Acme Co", testRequest.CustomerName)
	assert.Equal(t, Some("Acme Industries"), testRequest.Company)
	assert.False(t, testRequest.Email.IsSome())
	assert.Equal(t, Some("IS 694"), testRequest.Standards)
	assert.Equal(t, Some(past), testRequest.PreferredDate)
}

func TestSubmit_RejectsBlankMandatoryFields(t *testing.T) {
	f := newFixture(t)

	tests := map[string]func(*SubmitTestRequestRequest){
		"customerName": func(r *SubmitTestRequestRequest) { r.CustomerName = "   " },
		"phone":        func(r *SubmitTestRequestRequest) { r.Phone = "" },
		"testItemType": func(r *SubmitTestRequestRequest) { r.TestItemType = "\t" },
	}

	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			request := acmeRequest()
			mutate(&request)

			_, err := f.controller.Submit(context.Background(), guest, request)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, field, appErr.Field)
		})
	}

	page, err := f.controller.List(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSubmit_IDsUniqueAndOrderStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for range 5 {
		id, err := f.controller.Submit(ctx, guest, acmeRequest())
		require.NoError(t, err)
		assert.NotContains(t, ids, id)
		ids = append(ids, id)
	}

	page, err := f.controller.List(ctx, admin, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	for i, item := range page.Items {
		assert.Equal(t, ids[i], item.ID)
		if i > 0 {
			assert.Greater(t, item.SubmittedAt, page.Items[i-1].SubmittedAt)
		}
	}
	assert.Equal(t, int64(5), page.Version)
}

func TestList_PagesPartitionCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 7 {
		_, err := f.controller.Submit(ctx, guest, acmeRequest())
		require.NoError(t, err)
	}

	all, err := f.controller.List(ctx, admin, 100, 0)
	require.NoError(t, err)

	seen := []TestRequest{}
	for offset := 0; offset < 10; offset += 3 {
		page, err := f.controller.List(ctx, admin, 3, offset)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Items), 3)
		seen = append(seen, page.Items...)
	}
	assert.Equal(t, all.Items, seen)

	beyond, err := f.controller.List(ctx, admin, 3, 50)
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)

	zero, err := f.controller.List(ctx, admin, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, zero.Items)
}

func TestList_Validation(t *testing.T) {
	f := newFixture(t)

	for _, tt := range []struct{ limit, offset int }{{-1, 0}, {10, -1}, {1001, 0}} {
		_, err := f.controller.List(context.Background(), admin, tt.limit, tt.offset)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%d/%d", tt.limit, tt.offset)
	}
}

func TestAdminOnlyOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Submit(ctx, guest, acmeRequest())
	require.NoError(t, err)

	for _, caller := range []Caller{guest, user, NewCaller("stranger")} {
		_, err := f.controller.List(ctx, caller, 50, 0)
		assert.True(t, apperr.IsAuthorization(err), caller.Principal)

		_, err = f.controller.Get(ctx, caller, id)
		assert.True(t, apperr.IsAuthorization(err), caller.Principal)

		err = f.controller.Delete(ctx, caller, id)
		assert.True(t, apperr.IsAuthorization(err), caller.Principal)

		_, err = f.controller.Report(ctx, caller, id)
		assert.True(t, apperr.IsAuthorization(err), caller.Principal)
	}

	_, err = f.controller.List(ctx, guest, 50, 0)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	_, err = f.controller.List(ctx, user, 50, 0)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	result, err := f.controller.Get(ctx, admin, id)
	require.NoError(t, err)
	assert.True(t, result.IsSome())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Submit(ctx, guest, acmeRequest())
	require.NoError(t, err)

	require.NoError(t, f.controller.Delete(ctx, admin, id))

	result, err := f.controller.Get(ctx, admin, id)
	require.NoError(t, err)
	assert.False(t, result.IsSome())

	err = f.controller.Delete(ctx, admin, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	page, err := f.controller.List(ctx, admin, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Version)

	require.Len(t, f.events, 2)
	assert.Equal(t, services.ActionCreate, f.events[0].Action)
	assert.Equal(t, services.ActionDelete, f.events[1].Action)
	assert.Equal(t, id, f.events[1].Data["id"])
	assert.Equal(t, int64(2), f.events[1].Data["version"])
}

func TestGet_UnknownIsAbsent(t *testing.T) {
	f := newFixture(t)

	result, err := f.controller.Get(context.Background(), admin, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, result.IsSome())
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Submit(ctx, guest, acmeRequest())
	require.NoError(t, err)

	html, err := f.controller.Report(ctx, admin, id)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Acme Co")
	assert.Contains(t, string(html), "Electric Cable")

	_, err = f.controller.Report(ctx, admin, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReport_CountsOnlyReportOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Submit(ctx, guest, acmeRequest())
	require.NoError(t, err)
	_, err = f.controller.Report(ctx, admin, id)
	require.NoError(t, err)
	_, err = f.controller.Report(ctx, user, id)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	expected := `
# HELP testlab_store_operations_total Store operations by name and outcome kind.
# TYPE testlab_store_operations_total counter
testlab_store_operations_total{operation="submitTestRequest",outcome="ok"} 1
testlab_store_operations_total{operation="testRequestReport",outcome="forbidden"} 1
testlab_store_operations_total{operation="testRequestReport",outcome="ok"} 1
`
	err = promtest.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "testlab_store_operations_total")
	assert.NoError(t, err)
}
