package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/biosecret/go-tasks/apperr"
	"github.com/biosecret/go-tasks/logging"
	"github.com/biosecret/go-tasks/models"
)

// ErrorHandler renders every error returned by a handler as an ok:false
// envelope. Server-side failures are logged with their full context; the
// client only sees the public message.
func ErrorHandler(logger *slog.Logger, observe func(status int)) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := Status(err)
		if status >= fiber.StatusInternalServerError {
			logging.LogError(logger, "request failed", err,
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals("requestid"),
			)
		}
		if observe != nil {
			observe(status)
		}
		return c.Status(status).JSON(models.Failure(message(err)))
	}
}

// Status maps an error to the HTTP status used in responses.
func Status(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func message(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return apperr.Message(err)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("REQUEST_BODY_INVALID", "invalid request body")
	}
	return nil
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("TASK_ID_INVALID", "invalid id")
	}
	return id, nil
}
