package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestID reuses the inbound header value when present, otherwise assigns a
// new uuid. The id is echoed on the response and stored in the user context
// and in Locals.
func RequestID(header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqID string
		if header != "" {
			reqID = c.Get(header)
		}
		if reqID == "" {
			reqID = uuid.New().String()
		}
		if header != "" {
			c.Set(header, reqID)
		}
		c.Locals(string(requestIDKey), reqID)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey, reqID))
		return c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(string(requestIDKey)).(string)
	return id
}
