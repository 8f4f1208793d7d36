package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bizbridge-ng/bizbridge-api/internal/utils"
)

// AttachJWTLocals flattens the verified claims into request locals so
// handlers never touch the raw token.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Locals("token")
		if raw == nil {
			return unauthorized(c, "Authorization token required")
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return unauthorized(c, "Invalid token")
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return unauthorized(c, "Invalid token")
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return unauthorized(c, "Invalid token")
		}

		c.Locals("userId", uid)
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Locals("email", claims.Email)

		return c.Next()
	}
}
