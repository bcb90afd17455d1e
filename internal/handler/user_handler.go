package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/service"
	"github.com/noah-isme/gate-api/internal/utils"
)

// UserHandler exposes staff account management for administrators.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user routes to an already Admin-gated router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateUserRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, messageInvalidBody)
	}

	response, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, response)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	profiles, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, profiles)
}

func (h *UserHandler) update(c *fiber.Ctx) error {
	id, ok := h.userID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid user id.")
	}

	var payload dto.UpdateUserRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, messageInvalidBody)
	}

	profile, err := h.service.Update(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, profile)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	id, ok := h.userID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid user id.")
	}

	if err := h.service.Delete(c.UserContext(), id, actorFromContext(c)); err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendMessage(c, fiber.StatusOK, "User deleted successfully")
}

func (h *UserHandler) userID(c *fiber.Ctx) (string, bool) {
	parsed, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
