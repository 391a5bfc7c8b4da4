package handlers

import (
	"testlab/internal/app"
	"testlab/internal/apperr"
	adminController "testlab/internal/controllers/admin"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	controller *adminController.AdminController
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		controller: app.AdminController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	h.router.Put("/users/:principal/role", h.assignRole)
	h.router.Get("/admin/roles", h.getRoles)
}

func (h *AdminHandler) assignRole(c *fiber.Ctx) error {
	log := h.log.Function("assignRole")

	var request AssignRoleRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, log, apperr.Validation("failed to parse role assignment"))
	}

	principal, err := pathParam(c, "principal")
	if err != nil {
		return respondError(c, log, err)
	}

	err = h.controller.AssignRole(c.Context(), middleware.CallerFrom(c), principal, request)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *AdminHandler) getRoles(c *fiber.Ctx) error {
	log := h.log.Function("getRoles")

	roles, err := h.controller.ListRoles(c.Context(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "roles": roles})
}
