package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/utils"
)

func TestSendJSONDefaultsToOK(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendJSON(c, 0, []map[string]string{{"hello": "world"}})
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload []map[string]string
	decode(t, resp, &payload)
	require.Len(t, payload, 1)
	require.Equal(t, "world", payload[0]["hello"])
}

func TestSendErrorUsesErrorKey(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "User not found")
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload map[string]interface{}
	decode(t, resp, &payload)
	require.Equal(t, map[string]interface{}{"error": "User not found"}, payload)
}

func TestSendMessage(t *testing.T) {
	app := fiber.New()
	app.Delete("/", func(c *fiber.Ctx) error {
		return utils.SendMessage(c, fiber.StatusOK, "User deleted successfully")
	})

	resp := performRequest(t, app, http.MethodDelete, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload utils.MessageResponse
	decode(t, resp, &payload)
	require.Equal(t, "User deleted successfully", payload.Message)
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
