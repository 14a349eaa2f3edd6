package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives the recording vendor's status callbacks. They
// are logged for operators but not required for correctness: the
// pipeline works via polling and retry even if webhooks never arrive.
type WebhookHandler struct{}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

type webhookEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Handle processes POST /webhooks/recording.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var evt webhookEvent
	if err := c.BodyParser(&evt); err != nil {
		log.Printf("Recording webhook with unparseable body: %s", c.Body())
	} else {
		log.Printf("Recording webhook: event=%s session=%s status=%s", evt.Event, evt.SessionID, evt.Status)
	}
	return c.JSON(fiber.Map{"received": true})
}
