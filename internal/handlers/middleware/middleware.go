package middleware

import (
	"strings"
	"testlab/internal/access"
	"testlab/internal/auth"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"github.com/gofiber/fiber/v2"
)

const callerKey = "caller"

type Middleware struct {
	tokens *auth.TokenService
	guard  *access.Guard
	log    logger.Logger
}

func New(tokens *auth.TokenService, guard *access.Guard) Middleware {
	return Middleware{
		tokens: tokens,
		guard:  guard,
		log:    logger.New("middleware"),
	}
}

// Identify resolves the bearer token into a Caller. A request without a
// token is anonymous; a request with a bad token is rejected.
func (m Middleware) Identify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			c.Locals(callerKey, AnonymousCaller())
			return c.Next()
		}

		caller, err := m.tokens.Parse(token)
		if err != nil {
			m.log.Function("Identify").Debug("rejected token", "path", c.Path(), "error", err)
			return err
		}

		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// RequireAdmin gates a route on the caller's current role.
func (m Middleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := m.guard.RequireAdmin(c.Context(), CallerFrom(c)); err != nil {
			return err
		}
		return c.Next()
	}
}

func CallerFrom(c *fiber.Ctx) Caller {
	if caller, ok := c.Locals(callerKey).(Caller); ok {
		return caller
	}
	return AnonymousCaller()
}

// bearerToken also accepts ?token= because browsers cannot set headers on a
// websocket upgrade.
func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if header != "" {
		return header
	}
	return strings.TrimSpace(c.Query("token"))
}
