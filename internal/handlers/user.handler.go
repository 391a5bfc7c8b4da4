package handlers

import (
	"testlab/internal/app"
	"testlab/internal/apperr"
	userController "testlab/internal/controllers/users"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	controller *userController.UserController
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	log := logger.New("handlers").File("user_handler")
	return &UserHandler{
		controller: app.UserController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users")
	users.Get("/me/profile", h.getCallerProfile)
	users.Put("/me/profile", h.saveCallerProfile)
	users.Get("/me/role", h.getCallerRole)
	users.Get("/me/admin", h.isCallerAdmin)
	users.Get("/:principal/profile", h.getUserProfile)
}

func (h *UserHandler) getCallerProfile(c *fiber.Ctx) error {
	log := h.log.Function("getCallerProfile")

	profile, err := h.controller.GetCallerProfile(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "profile": profile})
}

func (h *UserHandler) saveCallerProfile(c *fiber.Ctx) error {
	log := h.log.Function("saveCallerProfile")

	var request SaveProfileRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, log, apperr.Validation("failed to parse profile"))
	}

	if err := h.controller.SaveCallerProfile(c.Context(), middleware.CallerFrom(c), request); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *UserHandler) getCallerRole(c *fiber.Ctx) error {
	log := h.log.Function("getCallerRole")

	role, err := h.controller.GetCallerRole(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "role": role})
}

func (h *UserHandler) isCallerAdmin(c *fiber.Ctx) error {
	log := h.log.Function("isCallerAdmin")

	isAdmin, err := h.controller.IsCallerAdmin(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "isAdmin": isAdmin})
}

func (h *UserHandler) getUserProfile(c *fiber.Ctx) error {
	log := h.log.Function("getUserProfile")

	principal, err := pathParam(c, "principal")
	if err != nil {
		return respondError(c, log, err)
	}

	profile, err := h.controller.GetUserProfile(c.Context(), middleware.CallerFrom(c), principal)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "profile": profile})
}
