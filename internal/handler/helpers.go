package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/middleware"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/service"
	"github.com/noah-isme/gate-api/internal/utils"
)

const messageInvalidBody = "Invalid request body."

// RouteGuards supplies the authorisation handler for each role combination.
// Feed guards the websocket route. A nil guard rejects every request.
type RouteGuards struct {
	Admin           fiber.Handler
	Security        fiber.Handler
	AdminOrSecurity fiber.Handler
	Feed            fiber.Handler
}

func guard(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusInternalServerError, "Authentication Error: route guard not configured")
		}
	}
	return h
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be positive")
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	if caller, ok := middleware.IdentityFromContext(c.UserContext()); ok {
		return service.Actor{ID: caller.UserID, Role: caller.Role}
	}

	actor := service.Actor{}
	if id, ok := c.Locals("user_id").(string); ok {
		actor.ID = strings.TrimSpace(id)
	}
	if role, ok := c.Locals("user_role").(models.Role); ok {
		actor.Role = role
	}
	return actor
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError writes err as {"error": ...} using the status of its kind.
func respondError(c *fiber.Ctx, logger *zerolog.Logger, err error) error {
	var appErr *service.AppError
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Msg("unexpected error")
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	status := appErr.Kind.HTTPStatus()
	switch {
	case status >= fiber.StatusInternalServerError:
		logger.Error().Err(appErr.Err).Msg(appErr.Message)
	case status == fiber.StatusNotFound:
		logger.Debug().Msg(appErr.Message)
	}

	return utils.SendError(c, status, appErr.Message)
}
