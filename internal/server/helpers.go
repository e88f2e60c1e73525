package server

import (
	"errors"

	"bigvyapaar/internal/middleware"
	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its code maps to. Causes behind
// upstream and internal errors are logged here and never sent to clients.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "request error",
			"path", c.Path(), "code", models.ErrorCode(err), "error", err)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(msg))
}

// parseBody decodes the JSON body into dst, answering 400 on failure.
// ok is false when the response has already been written.
func parseBody(c *fiber.Ctx, dst any) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "Invalid request body")
	}
	return true, nil
}

func userID(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
