package middleware

import (
	"crypto/subtle"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/gofiber/fiber/v2"
)

// APIAuth guards read endpoints with the configured API key. The key may be
// sent as X-Api-Token, as a Bearer token, or (for browser websockets, which
// cannot set headers) as the token query parameter.
func APIAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := cfg.Auth.APIKey
		if apiKey == "" {
			return c.Next()
		}

		headerToken := c.Get("X-Api-Token")
		if headerToken == "" {
			auth := c.Get("Authorization")
			const prefix = "Bearer "
			if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
				headerToken = auth[len(prefix):]
			}
		}
		if headerToken == "" {
			headerToken = c.Query("token")
		}

		if subtle.ConstantTimeCompare([]byte(headerToken), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		return c.Next()
	}
}
