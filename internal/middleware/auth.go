package middleware

import (
	"strings"

	"upager-license-server/internal/util"

	"github.com/gofiber/fiber/v2"
)

// Auth guards admin routes with a bearer token from /admin/login.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization token",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization format",
			})
		}

		userID, err := util.ValidateToken(tokenParts[1], secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization token",
			})
		}

		c.Locals("adminID", userID)
		return c.Next()
	}
}
