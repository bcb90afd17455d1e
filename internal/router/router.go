package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gate-api/internal/config"
	"github.com/noah-isme/gate-api/internal/handler"
	"github.com/noah-isme/gate-api/internal/middleware"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/observability"
	"github.com/noah-isme/gate-api/internal/utils"
)

// ErrGateRequired is returned when role-gated handlers are registered without an auth gate.
var ErrGateRequired = errors.New("router: auth gate is required for staff routes")

// Dependencies groups router dependencies for registration. SessionHandler is
// only set for the in-process identity driver.
type Dependencies struct {
	UserHandler      *handler.UserHandler
	DepartureHandler *handler.DepartureHandler
	ActivityHandler  *handler.ActivityHandler
	SessionHandler   *handler.SessionHandler
	Gate             *middleware.AuthGate
}

// NewApp builds the fiber application with an error handler that keeps the
// {"error": ...} body for framework-level failures such as unknown routes.
func NewApp(cfg config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
			return utils.SendError(c, status, err.Error())
		},
	})
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) error {
	gated := deps.UserHandler != nil || deps.ActivityHandler != nil || deps.DepartureHandler != nil
	if gated && deps.Gate == nil {
		return ErrGateRequired
	}

	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/auth"))
	}

	if !gated {
		return nil
	}

	guards := handler.RouteGuards{
		Admin:           deps.Gate.Admin(),
		Security:        deps.Gate.Security(),
		AdminOrSecurity: deps.Gate.AdminOrSecurity(),
		Feed:            deps.Gate.RequireStream(models.RoleAdmin, models.RoleSecurity),
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/admin/users", guards.Admin))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/admin/activity", guards.Admin))
	}

	if deps.DepartureHandler != nil {
		deps.DepartureHandler.Register(api.Group("/departures"), guards)
	}

	return nil
}
