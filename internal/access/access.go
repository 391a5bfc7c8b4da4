// Package access resolves a caller's role and gates store operations on it.
package access

import (
	"context"
	"testlab/internal/apperr"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/repositories"
)

type Guard struct {
	users repositories.UserRepository
	log   logger.Logger
}

func New(users repositories.UserRepository) *Guard {
	return &Guard{
		users: users,
		log:   logger.New("access"),
	}
}

// RoleOf never fails closed into a privileged role: anonymous callers and
// principals without an assignment are guests.
func (g *Guard) RoleOf(ctx context.Context, caller Caller) (Role, error) {
	if !caller.Authenticated() {
		return RoleGuest, nil
	}

	role, found, err := g.users.GetRole(ctx, caller.Principal)
	if err != nil {
		return "", g.log.Function("RoleOf").Err("failed to resolve role", err, "principal", caller.Principal)
	}
	if !found || !role.Valid() {
		return DefaultRole, nil
	}
	return role, nil
}

func (g *Guard) IsAdmin(ctx context.Context, caller Caller) (bool, error) {
	role, err := g.RoleOf(ctx, caller)
	if err != nil {
		return false, err
	}
	return role == RoleAdmin, nil
}

func (g *Guard) RequireAuthenticated(caller Caller) error {
	if !caller.Authenticated() {
		return apperr.Unauthenticated("sign in required")
	}
	return nil
}

func (g *Guard) RequireAdmin(ctx context.Context, caller Caller) error {
	if err := g.RequireAuthenticated(caller); err != nil {
		return err
	}

	isAdmin, err := g.IsAdmin(ctx, caller)
	if err != nil {
		return apperr.Internal("failed to resolve role")
	}
	if !isAdmin {
		g.log.Function("RequireAdmin").Warn("admin access denied", "principal", caller.Principal)
		return apperr.Forbidden("admin access required")
	}
	return nil
}

// RequireSelfOrAdmin lets a principal read its own data.
func (g *Guard) RequireSelfOrAdmin(ctx context.Context, caller Caller, principal string) error {
	if err := g.RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.Principal == principal {
		return nil
	}
	return g.RequireAdmin(ctx, caller)
}
