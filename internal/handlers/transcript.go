package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jimsandwick99/videocall/internal/storage"
)

// TranscriptHandler serves rendered transcript documents.
type TranscriptHandler struct {
	localStorage *storage.LocalStorage
}

// NewTranscriptHandler creates a transcript handler.
func NewTranscriptHandler(localStorage *storage.LocalStorage) *TranscriptHandler {
	return &TranscriptHandler{localStorage: localStorage}
}

// Get handles GET /transcript/:roomId?format=text|json. Absence means the
// transcript is not produced yet: a 404 the caller can poll on, never a
// server error.
func (h *TranscriptHandler) Get(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	format := c.Query("format", "text")
	if format != "text" && format != "json" {
		return c.Status(400).JSON(fiber.Map{"error": "format must be text or json", "code": "ERR_INVALID_FORMAT"})
	}

	path, ok := h.localStorage.TranscriptPath(roomID, format)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": "Transcript not available yet",
			"code":  "ERR_TRANSCRIPT_NOT_FOUND",
		})
	}

	if format == "json" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	return c.SendFile(path)
}
