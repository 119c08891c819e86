package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
)

// RequestID returns the id RequestLog assigned to c, or "" outside it.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}

// RequestLog tags each request with an X-Request-ID (kept if the client sent
// one) and logs one line per request once the handler chain returns.
func RequestLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(RequestIDHeader, reqID)
		c.Locals(requestIDLocal, reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		action := c.Query("action")
		if action != "" {
			log.Printf("[HTTP] %s %s action=%s → %d (%s) id=%s",
				c.Method(), c.Path(), action, status, time.Since(start).Round(time.Microsecond), reqID)
		} else {
			log.Printf("[HTTP] %s %s → %d (%s) id=%s",
				c.Method(), c.Path(), status, time.Since(start).Round(time.Microsecond), reqID)
		}
		return err
	}
}
