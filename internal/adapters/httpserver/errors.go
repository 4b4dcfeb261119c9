package httpserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mikey/spam-sweeper/internal/core"
	"go.uber.org/zap"
)

// fail maps a service error onto the response taxonomy: authentication 401,
// validation 400, missing results 404, upstream failures 502, anything
// else 500.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, core.ErrNoResults):
		status = fiber.StatusNotFound
	case core.IsValidation(err):
		status = fiber.StatusBadRequest
	case core.IsUpstream(err):
		status = fiber.StatusBadGateway
	}

	if status >= 500 {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"detail": err.Error(),
	})
}
