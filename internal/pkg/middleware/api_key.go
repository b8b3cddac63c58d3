package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/modelboard/modelboard/internal/pkg/env"
)

// InternalAPIKeyMiddleware guards the internal billing read endpoints. The
// key is shared with the dashboard backend via INTERNAL_API_KEY; when no key
// is configured the guard is disabled and a warning is logged once at setup.
func InternalAPIKeyMiddleware() fiber.Handler {
	expected := env.GetEnv("INTERNAL_API_KEY", "")
	if expected == "" {
		log.Print("api key middleware: INTERNAL_API_KEY not set, internal API is unprotected")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
