package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/service"
	"github.com/noah-isme/gate-api/internal/utils"
)

const (
	defaultActivityPageSize = 25
	maxActivityPageSize     = 200
)

// ActivityHandler exposes the audit trail to administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity log routes to an already Admin-gated router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid page.")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid page size.")
	}
	if pageSize <= 0 {
		pageSize = defaultActivityPageSize
	} else if pageSize > maxActivityPageSize {
		pageSize = maxActivityPageSize
	}

	response, err := h.service.List(c.UserContext(), dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	})
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}
