package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"testlab/internal/apperr"
	"testlab/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const defaultPageLimit = 50

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindTransport:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error body every route shares. Internal errors are
// logged and replaced with a generic message.
func respondError(c *fiber.Ctx, log logger.Logger, err error) error {
	appErr, ok := apperr.As(err)
	if !ok {
		log.Er("request failed", err, "path", c.Path(), "method", c.Method())
		appErr = apperr.Internal("internal error")
	} else if appErr.Kind == apperr.KindInternal {
		log.Er("request failed", err, "path", c.Path(), "method", c.Method())
		appErr = apperr.Internal("internal error")
	}

	return c.Status(statusFor(appErr.Kind)).
		JSON(fiber.Map{"message": "error", "error": appErr})
}

// ErrorHandler catches errors returned by middleware and unmatched routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	log := logger.New("handlers").Function("ErrorHandler")

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := apperr.KindInternal
		switch fiberErr.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			kind = apperr.KindNotFound
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired, fiber.StatusRequestEntityTooLarge:
			kind = apperr.KindValidation
		case fiber.StatusTooManyRequests, fiber.StatusServiceUnavailable:
			kind = apperr.KindTransport
		}
		return c.Status(fiberErr.Code).
			JSON(fiber.Map{"message": "error", "error": apperr.New(kind, fiberErr.Message)})
	}

	return respondError(c, log, err)
}

func pageParams(c *fiber.Ctx) (limit, offset int, err error) {
	limit, err = intQuery(c, "limit", defaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = intQuery(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intQuery(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationField(key, key+" must be an integer")
	}
	return value, nil
}

// pathParam returns the decoded route parameter. Fiber hands params back
// still percent-encoded.
func pathParam(c *fiber.Ctx, key string) (string, error) {
	value, err := url.PathUnescape(c.Params(key))
	if err != nil {
		return "", apperr.ValidationField(key, "malformed "+key)
	}
	return value, nil
}
