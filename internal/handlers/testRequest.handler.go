package handlers

import (
	"testlab/internal/app"
	"testlab/internal/apperr"
	testRequestController "testlab/internal/controllers/testRequests"
	"testlab/internal/handlers/middleware"
	"testlab/internal/logger"
	. "testlab/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TestRequestHandler struct {
	Handler
	controller *testRequestController.TestRequestController
}

func NewTestRequestHandler(app app.App, router fiber.Router, submitLimiter fiber.Handler) *TestRequestHandler {
	log := logger.New("handlers").File("testRequest_handler")
	return &TestRequestHandler{
		controller: app.TestRequestController,
		Handler: Handler{
			log:           log,
			router:        router,
			middleware:    app.Middleware,
			submitLimiter: submitLimiter,
		},
	}
}

func (h *TestRequestHandler) Register() {
	h.router.Get("/test-item-types", h.getTestItemTypes)

	testRequests := h.router.Group("/test-requests")
	testRequests.Post("/", h.submitLimiter, h.submitTestRequest)
	testRequests.Get("/", h.getTestRequests)
	testRequests.Get("/:id/report", h.getTestRequestReport)
	testRequests.Get("/:id", h.getTestRequest)
	testRequests.Delete("/:id", h.deleteTestRequest)
}

func (h *TestRequestHandler) submitTestRequest(c *fiber.Ctx) error {
	log := h.log.Function("submitTestRequest")

	var request SubmitTestRequestRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn("failed to parse test request", "error", err)
		return respondError(c, log, apperr.Validation("failed to parse test request"))
	}

	id, err := h.controller.Submit(c.Context(), middleware.CallerFrom(c), request)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success", "id": id})
}

func (h *TestRequestHandler) getTestRequests(c *fiber.Ctx) error {
	log := h.log.Function("getTestRequests")

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

func (h *TestRequestHandler) getTestRequest(c *fiber.Ctx) error {
	log := h.log.Function("getTestRequest")

	testRequest, err := h.controller.Get(c.Context(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success", "testRequest": testRequest})
}

func (h *TestRequestHandler) deleteTestRequest(c *fiber.Ctx) error {
	log := h.log.Function("deleteTestRequest")

	if err := h.controller.Delete(c.Context(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *TestRequestHandler) getTestRequestReport(c *fiber.Ctx) error {
	log := h.log.Function("getTestRequestReport")

	html, err := h.controller.Report(c.Context(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, log, err)
	}

	c.Type("html", "utf-8")
	return c.Send(html)
}

func (h *TestRequestHandler) getTestItemTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "success", "testItemTypes": TestItemTypes})
}
