package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/service"
	"github.com/noah-isme/gate-api/internal/utils"
)

// DepartureHandler exposes the early departure workflow and the gate feed.
type DepartureHandler struct {
	service service.DepartureService
	feed    service.GateFeedService
	logger  zerolog.Logger
}

// NewDepartureHandler constructs the handler. feed may be nil, in which case
// the websocket route is not registered.
func NewDepartureHandler(service service.DepartureService, feed service.GateFeedService, logger zerolog.Logger) *DepartureHandler {
	return &DepartureHandler{
		service: service,
		feed:    feed,
		logger:  logger.With().Str("component", "departure_handler").Logger(),
	}
}

// Register attaches departure routes, each behind its role guard.
func (h *DepartureHandler) Register(router fiber.Router, guards RouteGuards) {
	router.Post("", guard(guards.Admin), h.create)
	router.Get("", guard(guards.Admin), h.listAll)
	router.Get("/today", guard(guards.AdminOrSecurity), h.listToday)
	if h.feed != nil {
		router.Get("/feed", guard(guards.Feed), requireUpgrade, websocket.New(h.streamFeed))
	}
	router.Put("/:id/checkout", guard(guards.Security), h.checkout)
}

func (h *DepartureHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateDepartureRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, messageInvalidBody)
	}

	departure, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusCreated, departure)
}

func (h *DepartureHandler) listAll(c *fiber.Ctx) error {
	departures, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, departures)
}

func (h *DepartureHandler) listToday(c *fiber.Ctx) error {
	departures, err := h.service.ListToday(c.UserContext())
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, departures)
}

func (h *DepartureHandler) checkout(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid departure id.")
	}

	departure, err := h.service.Checkout(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return respondError(c, requestLogger(h.logger, c), err)
	}

	return utils.SendJSON(c, fiber.StatusOK, departure)
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.SendError(c, fiber.StatusUpgradeRequired, "Websocket upgrade required.")
	}
	return c.Next()
}

func (h *DepartureHandler) streamFeed(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("user_role").(models.Role)
	correlation, _ := conn.Locals("correlation_id").(string)

	defer func() { _ = conn.Close() }()

	h.feed.ServeConnection(conn, service.GateFeedOptions{
		UserID:        userID,
		Role:          role,
		CorrelationID: correlation,
	})
}
