package userController

import (
	"context"
	"strings"
	"testlab/internal/access"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"testlab/internal/repositories"
	"testlab/internal/services"
	"testlab/internal/utils"
)

type UserController struct {
	userRepo           repositories.UserRepository
	guard              *access.Guard
	transactionService *services.TransactionService
	metrics            *metrics.Metrics
	log                logger.Logger
}

func New(
	userRepo repositories.UserRepository,
	guard *access.Guard,
	transactionService *services.TransactionService,
	metrics *metrics.Metrics,
) *UserController {
	return &UserController{
		userRepo:           userRepo,
		guard:              guard,
		transactionService: transactionService,
		metrics:            metrics,
		log:                logger.New("UserController"),
	}
}

func (uc *UserController) GetCallerProfile(ctx context.Context, caller Caller) (result Optional[UserProfile], err error) {
	defer func() { uc.metrics.Observe("getCallerUserProfile", err) }()

	if err := uc.guard.RequireAuthenticated(caller); err != nil {
		return None[UserProfile](), err
	}
	return uc.profile(ctx, caller.Principal)
}

// SaveCallerProfile upserts the caller's profile. A guest becomes a user;
// any other role is left alone.
func (uc *UserController) SaveCallerProfile(ctx context.Context, caller Caller, request SaveProfileRequest) (err error) {
	defer func() { uc.metrics.Observe("saveCallerUserProfile", err) }()
	log := uc.log.Function("SaveCallerProfile")

	if err := uc.guard.RequireAuthenticated(caller); err != nil {
		return err
	}

	request.Name = strings.TrimSpace(request.Name)
	if err := utils.ValidateStruct(request); err != nil {
		return err
	}

	err = uc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.SaveProfile(txCtx, &UserProfile{Principal: caller.Principal, Name: request.Name}); err != nil {
			return err
		}

		role, found, err := uc.userRepo.GetRole(txCtx, caller.Principal)
		if err != nil {
			return err
		}
		if !found {
			log.Info("Granting user role", "principal", caller.Principal)
			return uc.userRepo.SetRoleIfAbsent(txCtx, caller.Principal, RoleUser, caller.Principal)
		}
		if role != RoleGuest {
			return nil
		}

		log.Info("Promoting guest to user", "principal", caller.Principal)
		return uc.userRepo.SetRole(txCtx, caller.Principal, RoleUser, caller.Principal)
	})
	if err != nil {
		return log.Err("failed to save profile", err, "principal", caller.Principal)
	}

	uc.userRepo.EvictProfile(ctx, caller.Principal)
	return nil
}

// GetUserProfile is available to admins and to the principal itself.
func (uc *UserController) GetUserProfile(ctx context.Context, caller Caller, principal string) (result Optional[UserProfile], err error) {
	defer func() { uc.metrics.Observe("getUserProfile", err) }()

	principal = strings.TrimSpace(principal)
	if err := uc.guard.RequireSelfOrAdmin(ctx, caller, principal); err != nil {
		return None[UserProfile](), err
	}
	if principal == "" {
		return None[UserProfile](), nil
	}
	return uc.profile(ctx, principal)
}

func (uc *UserController) GetCallerRole(ctx context.Context, caller Caller) (role Role, err error) {
	defer func() { uc.metrics.Observe("getCallerUserRole", err) }()
	return uc.guard.RoleOf(ctx, caller)
}

func (uc *UserController) IsCallerAdmin(ctx context.Context, caller Caller) (isAdmin bool, err error) {
	defer func() { uc.metrics.Observe("isCallerAdmin", err) }()
	return uc.guard.IsAdmin(ctx, caller)
}

func (uc *UserController) profile(ctx context.Context, principal string) (Optional[UserProfile], error) {
	profile, found, err := uc.userRepo.GetProfile(ctx, principal)
	if err != nil {
		return None[UserProfile](), uc.log.Function("profile").Err("failed to get profile", err, "principal", principal)
	}
	if !found {
		return None[UserProfile](), nil
	}
	return Some(profile), nil
}
