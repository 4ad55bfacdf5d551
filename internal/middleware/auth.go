package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// LocalsSessionKey is where RequireSession stores the caller's session key.
const LocalsSessionKey = "session_key"

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func BearerToken(c fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// RequireSession rejects requests without a bearer session key. The token
// is opaque here; the session registry decides whether anyone is signed in.
func RequireSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Authorization header format, expected 'Bearer <token>'",
			})
		}

		token := BearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "empty bearer token",
			})
		}

		c.Locals(LocalsSessionKey, token)
		return c.Next()
	}
}

// SessionKey returns the key stored by RequireSession.
func SessionKey(c fiber.Ctx) string {
	key, _ := c.Locals(LocalsSessionKey).(string)
	return key
}
