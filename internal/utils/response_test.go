package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func TestSuccessEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/list", func(c *fiber.Ctx) error {
		return utils.OK(c, []string{"CS101"}, "", map[string]int{"page": 1, "total": 1})
	})
	app.Post("/created", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", map[string]uint{"id": 4})
	})
	app.Get("/zero", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, 0, "", nil)
	})

	status, body := call(t, app, http.MethodGet, "/list")
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "success", body.Message)
	assert.JSONEq(t, `["CS101"]`, string(body.Data))
	assert.JSONEq(t, `{"page":1,"total":1}`, string(body.Meta))

	status, body = call(t, app, http.MethodPost, "/created")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "course created", body.Message)
	assert.JSONEq(t, `{"id":4}`, string(body.Data))
	assert.Empty(t, body.Meta)

	status, body = call(t, app, http.MethodGet, "/zero")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "success", body.Message)
	assert.Empty(t, body.Data)
}

func TestErrorEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusConflict, "course is full", map[string]string{"rule": "enrollment_capacity"})
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "")
	})

	status, body := call(t, app, http.MethodGet, "/conflict")
	require.Equal(t, fiber.StatusConflict, status)
	assert.False(t, body.Success)
	assert.Equal(t, "course is full", body.Message)
	assert.JSONEq(t, `{"rule":"enrollment_capacity"}`, string(body.Details))
	assert.Empty(t, body.Data)

	status, body = call(t, app, http.MethodGet, "/plain")
	require.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "error", body.Message)
	assert.Empty(t, body.Details)
}

func call(t *testing.T, app *fiber.App, method, path string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}
