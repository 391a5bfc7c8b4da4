package contactSubmissionController

import (
	"context"
	"strings"
	"testlab/internal/access"
	"testlab/internal/apperr"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"testlab/internal/utils"
)

type ContactSubmissionController struct {
	contactSubmissionRepo    repositories.ContactSubmissionRepository
	versionRepo              repositories.CollectionVersionRepository
	guard                    *access.Guard
	transactionService       *services.TransactionService
	cacheInvalidationService *services.CacheInvalidationService
	clock                    services.Clock
	metrics                  *metrics.Metrics
	log                      logger.Logger
}

func New(
	contactSubmissionRepo repositories.ContactSubmissionRepository,
	versionRepo repositories.CollectionVersionRepository,
	guard *access.Guard,
	transactionService *services.TransactionService,
	cacheInvalidationService *services.CacheInvalidationService,
	clock services.Clock,
	metrics *metrics.Metrics,
) *ContactSubmissionController {
	return &ContactSubmissionController{
		contactSubmissionRepo:    contactSubmissionRepo,
		versionRepo:              versionRepo,
		guard:                    guard,
		transactionService:       transactionService,
		cacheInvalidationService: cacheInvalidationService,
		clock:                    clock,
		metrics:                  metrics,
		log:                      logger.New("ContactSubmissionController"),
	}
}

func (cc *ContactSubmissionController) Submit(
	ctx context.Context,
	caller Caller,
	request SubmitContactFormRequest,
) (id string, err error) {
	defer func() { cc.metrics.Observe("submitContactForm", err) }()
	log := cc.log.Function("Submit")

	request.Name = strings.TrimSpace(request.Name)
	request.Phone = strings.TrimSpace(request.Phone)
	request.Message = strings.TrimSpace(request.Message)
	if err := utils.ValidateStruct(request); err != nil {
		return "", err
	}

	submission := ContactSubmission{
		Name:    request.Name,
		Phone:   request.Phone,
		Email:   TrimOptional(request.Email),
		Message: request.Message,
	}

	var version int64
	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		submission.SubmittedAt = cc.clock.Now()
		if err := cc.contactSubmissionRepo.Create(txCtx, &submission); err != nil {
			return err
		}

		var err error
		version, err = cc.versionRepo.Bump(txCtx, CollectionContactSubmissions)
		return err
	})
	if err != nil {
		return "", log.Err("failed to submit contact form", err, "name", request.Name)
	}

	log.Info("Contact form submitted", "contactSubmissionID", submission.ID, "principal", caller.Principal)
	cc.invalidate(ctx, version, services.ActionCreate, submission.ID, caller)

	return submission.ID, nil
}

func (cc *ContactSubmissionController) List(
	ctx context.Context,
	caller Caller,
	limit, offset int,
) (page Page[ContactSubmission], err error) {
	defer func() { cc.metrics.Observe("getContactSubmissions", err) }()

	if err := cc.guard.RequireAdmin(ctx, caller); err != nil {
		return Page[ContactSubmission]{}, err
	}
	if err := utils.ValidatePage(limit, offset); err != nil {
		return Page[ContactSubmission]{}, err
	}

	page = Page[ContactSubmission]{Items: []ContactSubmission{}, Limit: limit, Offset: offset}
	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		var err error
		if page.Version, err = cc.versionRepo.Get(txCtx, CollectionContactSubmissions); err != nil {
			return err
		}
		if limit == 0 {
			return nil
		}
		page.Items, err = cc.contactSubmissionRepo.List(txCtx, limit, offset)
		return err
	})
	if err != nil {
		return Page[ContactSubmission]{}, cc.log.Function("List").
			Err("failed to list contact submissions", err, "limit", limit, "offset", offset)
	}

	return page, nil
}

func (cc *ContactSubmissionController) Get(
	ctx context.Context,
	caller Caller,
	id string,
) (result Optional[ContactSubmission], err error) {
	defer func() { cc.metrics.Observe("getContactSubmissionById", err) }()

	if err := cc.guard.RequireAdmin(ctx, caller); err != nil {
		return None[ContactSubmission](), err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return None[ContactSubmission](), nil
	}

	submission, found, err := cc.contactSubmissionRepo.GetByID(ctx, id)
	if err != nil {
		return None[ContactSubmission](), cc.log.Function("Get").Err("failed to get contact submission", err, "id", id)
	}
	if !found {
		return None[ContactSubmission](), nil
	}
	return Some(submission), nil
}

func (cc *ContactSubmissionController) Delete(ctx context.Context, caller Caller, id string) (err error) {
	defer func() { cc.metrics.Observe("deleteContactSubmission", err) }()
	log := cc.log.Function("Delete")

	if err := cc.guard.RequireAdmin(ctx, caller); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.ValidationField("id", "id is required")
	}

	var version int64
	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		deleted, err := cc.contactSubmissionRepo.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("contact submission not found")
		}

		version, err = cc.versionRepo.Bump(txCtx, CollectionContactSubmissions)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return log.Err("failed to delete contact submission", err, "id", id)
	}

	cc.contactSubmissionRepo.Evict(ctx, id)
	log.Info("Contact submission deleted", "contactSubmissionID", id, "principal", caller.Principal)
	cc.invalidate(ctx, version, services.ActionDelete, id, caller)

	return nil
}

func (cc *ContactSubmissionController) invalidate(ctx context.Context, version int64, action, id string, caller Caller) {
	err := cc.cacheInvalidationService.InvalidateCollection(ctx, CollectionContactSubmissions, version, action, id, caller.Principal)
	if err != nil {
		cc.log.Function("invalidate").Warn("failed to publish invalidation", "contactSubmissionID", id, "error", err)
	}
}
