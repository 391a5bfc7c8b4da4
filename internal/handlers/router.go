package handlers

import (
	"testlab/internal/app"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware    middleware.Middleware
	submitLimiter fiber.Handler
	log           logger.Logger
	router        fiber.Router
}

// NewServer builds the fiber app with the shared middleware stack and every
// route registered.
func NewServer(app *app.App) (*fiber.App, error) {
	server := fiber.New(fiber.Config{
		AppName:               "testlab " + app.Config.GeneralVersion,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             1 << 20,
	})

	server.Use(recover.New())
	server.Use(requestid.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: app.Config.ServerCorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	server.Use(app.Metrics.Middleware())

	server.Get("/metrics", app.Metrics.Handler())

	if err := Router(server, app); err != nil {
		return nil, err
	}
	return server, nil
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.Identify())
	setupWebSocketRoute(router, app)

	submitLimiter := limiter.New(limiter.Config{
		Max:        app.Config.ServerSubmitRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	})

	api := router.Group("/api")
	HealthHandler(api, app)
	NewTestRequestHandler(*app, api, submitLimiter).Register()
	NewContactSubmissionHandler(*app, api, submitLimiter).Register()
	NewUserHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", app.Middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals("principal", middleware.CallerFrom(c).Principal)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}
