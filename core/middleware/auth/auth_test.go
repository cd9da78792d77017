package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/sources", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendString("metrics") })
	return app
}

func status(t *testing.T, app *fiber.App, target, key string) int {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if key != "" {
		req.Header.Set(HeaderName, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuth(t *testing.T) {
	app := newApp(Config{ApiKey: "s3cret", Skip: []string{"/metrics"}})

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/sources", ""))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/sources", "wrong"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/sources", "s3cret"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/sources?api_key=s3cret", ""))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/metrics", ""))
}

func TestAuth_Disabled(t *testing.T) {
	app := newApp(Config{})
	assert.Equal(t, fiber.StatusOK, status(t, app, "/sources", ""))
}
