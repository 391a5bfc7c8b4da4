package handlers

import (
	"testlab/internal/app"
	"testlab/internal/apperr"
	contactSubmissionController "testlab/internal/controllers/contactSubmissions"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ContactSubmissionHandler struct {
	Handler
	controller *contactSubmissionController.ContactSubmissionController
}

func NewContactSubmissionHandler(app app.App, router fiber.Router, submitLimiter fiber.Handler) *ContactSubmissionHandler {
	log := logger.New("handlers").File("contactSubmission_handler")
	return &ContactSubmissionHandler{
		controller: app.ContactSubmissionController,
		Handler: Handler{
			log:           log,
			router:        router,
			middleware:    app.Middleware,
			submitLimiter: submitLimiter,
		},
	}
}

func (h *ContactSubmissionHandler) Register() {
	contactSubmissions := h.router.Group("/contact-submissions")
	contactSubmissions.Post("/", h.submitLimiter, h.submitContactForm)
	contactSubmissions.Get("/", h.getContactSubmissions)
	contactSubmissions.Get("/:id", h.getContactSubmission)
	contactSubmissions.Delete("/:id", h.deleteContactSubmission)
}

func (h *ContactSubmissionHandler) submitContactForm(c *fiber.Ctx) error {
	log := h.log.Function("submitContactForm")

	var request SubmitContactFormRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn("failed to parse contact form", "error", err)
		return respondError(c, log, apperr.Validation("failed to parse contact form"))
	}

	id, err := h.controller.Submit(c.Context(), middleware.CallerFrom(c), request)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success", "id": id})
}

func (h *ContactSubmissionHandler) getContactSubmissions(c *fiber.Ctx) error {
	log := h.log.Function("getContactSubmissions")

	limit, offset, err := pageParams(c)
	if err != nil {
		return respondError(c, log, err)
	}

	page, err := h.controller.List(c.Context(), middleware.CallerFrom(c), limit, offset)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "page": page})
}

func (h *ContactSubmissionHandler) getContactSubmission(c *fiber.Ctx) error {
	log := h.log.Function("getContactSubmission")

	submission, err := h.controller.Get(c.Context(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "contactSubmission": submission})
}

func (h *ContactSubmissionHandler) deleteContactSubmission(c *fiber.Ctx) error {
	log := h.log.Function("deleteContactSubmission")

	if err := h.controller.Delete(c.Context(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}
