package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apphttp "github.com/zulaiy/zutax-api/internal/interfaces/http"
	pkgjwt "github.com/zulaiy/zutax-api/pkg/jwt"
)

const (
	testJWTSecret  = "test-secret-key-for-unit-tests"
	testBusinessID = "00000000-0000-0000-0000-000000000001"
	testIssuer     = "zutax-api-test"
	testExpMin     = 60
)

func buildAuthTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"business_id": apphttp.GetBusinessID(c),
			"role":        apphttp.GetRole(c),
		})
	})
	return app
}

func bearerToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testBusinessID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doRequest(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddlewareExtractsClaims(t *testing.T) {
	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", bearerToken(t, "operator"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testBusinessID, body["business_id"])
	assert.Equal(t, "operator", body["role"])
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", "Token abc")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", "Bearer not.a.token")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testBusinessID, "viewer", testIssuer, -1)
	require.NoError(t, err)

	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	tok, err := pkgjwt.Generate("a-completely-different-secret", testBusinessID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	app := buildAuthTestApp()
	resp := doRequest(t, app, "/protected", "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func buildWebhookTestApp(t *testing.T, key string) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/hook", apphttp.WebhookAuthMiddleware(string(hash)), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestWebhookAuthAcceptsCorrectKey(t *testing.T) {
	app := buildWebhookTestApp(t, "shared-webhook-key")

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set("X-Webhook-Key", "shared-webhook-key")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookAuthRejectsWrongKey(t *testing.T) {
	app := buildWebhookTestApp(t, "shared-webhook-key")

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set("X-Webhook-Key", "guessed-key")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookAuthRejectsMissingKey(t *testing.T) {
	app := buildWebhookTestApp(t, "shared-webhook-key")

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
