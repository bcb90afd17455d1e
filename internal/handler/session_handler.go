package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/service"
	"github.com/noah-isme/gate-api/internal/utils"
)

// SessionHandler exposes password sign-in for the in-process identity driver.
type SessionHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches the sign-in route. It is public.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
}

func (h *SessionHandler) login(c *fiber.Ctx) error {
	var payload dto.SignInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, messageInvalidBody)
	}

	session, err := h.service.SignIn(c.UserContext(), payload)
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, session)
}
