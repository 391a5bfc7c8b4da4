package adminController

import (
	"context"
	"strings"
	"testlab/config"
	"testlab/internal/access"
	"testlab/internal/apperr"
	"testlab/internal/events"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"testlab/internal/repositories"
	"testlab/internal/utils"
	"time"

	"github.com/google/uuid"
)

type AdminController struct {
	userRepo repositories.UserRepository
	guard    *access.Guard
	Config   config.Config
	eventBus *events.EventBus
	metrics  *metrics.Metrics
	log      logger.Logger
}

func New(
	eventBus *events.EventBus,
	userRepo repositories.UserRepository,
	guard *access.Guard,
	config config.Config,
	metrics *metrics.Metrics,
) *AdminController {
	return &AdminController{
		userRepo: userRepo,
		guard:    guard,
		Config:   config,
		eventBus: eventBus,
		metrics:  metrics,
		log:      logger.New("AdminController"),
	}
}

// AssignRole sets another principal's role. Only admins may call it.
func (c *AdminController) AssignRole(
	ctx context.Context,
	caller Caller,
	principal string,
	request AssignRoleRequest,
) (err error) {
	defer func() { c.metrics.Observe("assignCallerUserRole", err) }()
	log := c.log.Function("AssignRole")

	if err := c.guard.RequireAdmin(ctx, caller); err != nil {
		return err
	}

	principal = strings.TrimSpace(principal)
	if principal == "" || principal == AnonymousPrincipal {
		return apperr.ValidationField("principal", "principal is required")
	}
	if principal == caller.Principal {
		return apperr.Forbidden("admins cannot change their own role")
	}
	if err := utils.ValidateStruct(request); err != nil {
		return err
	}

	if err := c.userRepo.SetRole(ctx, principal, request.Role, caller.Principal); err != nil {
		return log.Err("failed to assign role", err, "principal", principal, "role", request.Role)
	}

	log.Info("Role assigned", "principal", principal, "role", request.Role, "assignedBy", caller.Principal)
	c.SendBroadcast(caller, "role assigned", map[string]any{
		"principal": principal,
		"role":      string(request.Role),
	})

	return nil
}

func (c *AdminController) ListRoles(ctx context.Context, caller Caller) ([]UserRole, error) {
	if err := c.guard.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	roles, err := c.userRepo.ListRoles(ctx)
	if err != nil {
		return nil, c.log.Function("ListRoles").Err("failed to list roles", err)
	}
	return roles, nil
}

func (c *AdminController) SendBroadcast(caller Caller, message string, data map[string]any) {
	log := c.log.Function("SendBroadcast")

	payload := map[string]any{"message": message}
	for k, v := range data {
		payload[k] = v
	}

	event := events.Event{
		ID:        uuid.New().String(),
		Type:      events.TypeAdmin,
		Channel:   events.ChannelBroadcast,
		UserID:    caller.Principal,
		Data:      payload,
		Timestamp: time.Now(),
	}

	if err := c.eventBus.Publish(events.ChannelBroadcast, event); err != nil {
		log.Er("failed to publish event", err, "eventID", event.ID)
	}
}
