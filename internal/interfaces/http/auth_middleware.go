package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/zulaiy/zutax-api/pkg/jwt"
)

// Locals keys set by the auth middlewares.
const (
	LocalBusinessID = "business_id"
	LocalRole       = "role"
)

// AuthMiddleware validates the Bearer token of the read API and stores the
// business ID and role in the request context.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header required"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "format: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "empty token"})
		}
		businessID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "invalid or expired token"})
		}
		c.Locals(LocalBusinessID, businessID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// WebhookAuthMiddleware authenticates host-system webhook calls with a
// shared API key. Only the bcrypt hash of the key is configured; the clear
// key never touches the config surface.
func WebhookAuthMiddleware(apiKeyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Webhook-Key")
		if key == "" || apiKeyHash == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_KEY", Message: "X-Webhook-Key header required"})
		}
		if err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_KEY", Message: "webhook key rejected"})
		}
		return c.Next()
	}
}

// GetBusinessID returns the authenticated business ID, empty when the auth
// middleware did not run.
func GetBusinessID(c *fiber.Ctx) string {
	v := c.Locals(LocalBusinessID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole returns the authenticated role.
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
