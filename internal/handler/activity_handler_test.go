package handler_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/config"
	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/handler"
	"github.com/noah-isme/gate-api/internal/service"
)

type mockActivityService struct {
	lastRequest dto.AdminActivityListRequest
}

func (m *mockActivityService) Record(context.Context, service.ActivityEntry) (dto.AdminActivityResponse, error) {
	return dto.AdminActivityResponse{}, nil
}

func (m *mockActivityService) List(_ context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	m.lastRequest = req
	return dto.AdminActivityListResponse{Items: []dto.AdminActivityResponse{}, Pagination: dto.PaginationMeta{Page: req.Page, PageSize: req.PageSize}}, nil
}

func TestActivityHandlerClampsPaging(t *testing.T) {
	svc := &mockActivityService{}
	app := fiber.New()
	handler.NewActivityHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/admin/activity"))

	resp, _ := doJSON(t, app, http.MethodGet, "/api/admin/activity?page_size=1000&action=departure.checked_out", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.lastRequest.Page)
	require.Equal(t, 200, svc.lastRequest.PageSize)
	require.Equal(t, "departure.checked_out", svc.lastRequest.Action)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/admin/activity?page=abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid page.", payload["error"])
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/api/health", handler.HealthCheck(config.Config{AppName: "Gate API", AppEnv: "test"}))

	resp, payload := doJSON(t, app, http.MethodGet, "/api/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", payload["status"])
	require.Equal(t, "Gate API", payload["service"])
	require.Equal(t, "test", payload["environment"])
}
