package testRequestController

import (
	"context"
	"strings"
	"testlab/internal/access"
	"testlab/internal/apperr"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"testlab/internal/reports"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"testlab/internal/utils"
)

type TestRequestController struct {
	testRequestRepo          repositories.TestRequestRepository
	versionRepo              repositories.CollectionVersionRepository
	guard                    *access.Guard
	transactionService       *services.TransactionService
	cacheInvalidationService *services.CacheInvalidationService
	clock                    services.Clock
	renderer                 *reports.Renderer
	metrics                  *metrics.Metrics
	log                      logger.Logger
}

func New(
	testRequestRepo repositories.TestRequestRepository,
	versionRepo repositories.CollectionVersionRepository,
	guard *access.Guard,
	transactionService *services.TransactionService,
	cacheInvalidationService *services.CacheInvalidationService,
	clock services.Clock,
	renderer *reports.Renderer,
	metrics *metrics.Metrics,
) *TestRequestController {
	return &TestRequestController{
		testRequestRepo:          testRequestRepo,
		versionRepo:              versionRepo,
		guard:                    guard,
		transactionService:       transactionService,
		cacheInvalidationService: cacheInvalidationService,
		clock:                    clock,
		renderer:                 renderer,
		metrics:                  metrics,
		log:                      logger.New("TestRequestController"),
	}
}

// Submit is open to every caller, anonymous included.
func (tc *TestRequestController) Submit(
	ctx context.Context,
	caller Caller,
	request SubmitTestRequestRequest,
) (id string, err error) {
	defer func() { tc.metrics.Observe("submitTestRequest", err) }()
	log := tc.log.Function("Submit")

	request.CustomerName = strings.TrimSpace(request.CustomerName)
	request.Phone = strings.TrimSpace(request.Phone)
	request.TestItemType = strings.TrimSpace(request.TestItemType)
	if err := utils.ValidateStruct(request); err != nil {
		return "", err
	}

	testRequest := TestRequest{
		CustomerName:  request.CustomerName,
		Company:       TrimOptional(request.Company),
		Phone:         request.Phone,
		Email:         TrimOptional(request.Email),
		TestItemType:  request.TestItemType,
		Standards:     TrimOptional(request.Standards),
		Message:       TrimOptional(request.Message),
		PreferredDate: request.PreferredDate,
	}

	var version int64
	err = tc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		testRequest.SubmittedAt = tc.clock.Now()
		if err := tc.testRequestRepo.Create(txCtx, &testRequest); err != nil {
			return err
		}

		var err error
		version, err = tc.versionRepo.Bump(txCtx, CollectionTestRequests)
		return err
	})
	if err != nil {
		return "", log.Err("failed to submit test request", err, "customerName", request.CustomerName)
	}

	log.Info("Test request submitted", "testRequestID", testRequest.ID, "principal", caller.Principal)
	tc.invalidate(ctx, version, services.ActionCreate, testRequest.ID, caller)

	return testRequest.ID, nil
}

func (tc *TestRequestController) List(
	ctx context.Context,
	caller Caller,
	limit, offset int,
) (page Page[TestRequest], err error) {
	defer func() { tc.metrics.Observe("getTestRequests", err) }()

	if err := tc.guard.RequireAdmin(ctx, caller); err != nil {
		return Page[TestRequest]{}, err
	}
	if err := utils.ValidatePage(limit, offset); err != nil {
		return Page[TestRequest]{}, err
	}

	page = Page[TestRequest]{Items: []TestRequest{}, Limit: limit, Offset: offset}
	err = tc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		var err error
		if page.Version, err = tc.versionRepo.Get(txCtx, CollectionTestRequests); err != nil {
			return err
		}
		if limit == 0 {
			return nil
		}
		page.Items, err = tc.testRequestRepo.List(txCtx, limit, offset)
		return err
	})
	if err != nil {
		return Page[TestRequest]{}, tc.log.Function("List").
			Err("failed to list test requests", err, "limit", limit, "offset", offset)
	}

	return page, nil
}

// Get reports an unknown id as None, not as an error.
func (tc *TestRequestController) Get(
	ctx context.Context,
	caller Caller,
	id string,
) (result Optional[TestRequest], err error) {
	defer func() { tc.metrics.Observe("getTestRequestById", err) }()

	if err := tc.guard.RequireAdmin(ctx, caller); err != nil {
		return None[TestRequest](), err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return None[TestRequest](), nil
	}

	testRequest, found, err := tc.testRequestRepo.GetByID(ctx, id)
	if err != nil {
		return None[TestRequest](), tc.log.Function("Get").Err("failed to get test request", err, "id", id)
	}
	if !found {
		return None[TestRequest](), nil
	}
	return Some(testRequest), nil
}

// Delete removes the record permanently. An unknown id is a not-found error.
func (tc *TestRequestController) Delete(ctx context.Context, caller Caller, id string) (err error) {
	defer func() { tc.metrics.Observe("deleteTestRequest", err) }()
	log := tc.log.Function("Delete")

	if err := tc.guard.RequireAdmin(ctx, caller); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.ValidationField("id", "id is required")
	}

	var version int64
	err = tc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		deleted, err := tc.testRequestRepo.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("test request not found")
		}

		version, err = tc.versionRepo.Bump(txCtx, CollectionTestRequests)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return log.Err("failed to delete test request", err, "id", id)
	}

	tc.testRequestRepo.Evict(ctx, id)
	log.Info("Test request deleted", "testRequestID", id, "principal", caller.Principal)
	tc.invalidate(ctx, version, services.ActionDelete, id, caller)

	return nil
}

// Report renders the printable HTML report for one test request.
func (tc *TestRequestController) Report(ctx context.Context, caller Caller, id string) (html []byte, err error) {
	defer func() { tc.metrics.Observe("testRequestReport", err) }()

	if err := tc.guard.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	testRequest, found, err := tc.testRequestRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, tc.log.Function("Report").Err("failed to get test request", err, "id", id)
	}
	if !found {
		return nil, apperr.NotFound("test request not found")
	}

	return tc.renderer.TestRequest(testRequest)
}

func (tc *TestRequestController) invalidate(ctx context.Context, version int64, action, id string, caller Caller) {
	err := tc.cacheInvalidationService.InvalidateCollection(ctx, CollectionTestRequests, version, action, id, caller.Principal)
	if err != nil {
		tc.log.Function("invalidate").Warn("failed to publish invalidation", "testRequestID", id, "error", err)
	}
}
