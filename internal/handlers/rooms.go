package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jimsandwick99/videocall/internal/signal"
)

// RoomsHandler creates call rooms.
type RoomsHandler struct {
	hub         *signal.Hub
	joinURLBase string
}

// NewRoomsHandler creates a rooms handler. joinURLBase is the public URL
// prefix clients use to join, e.g. "https://call.example.com/room".
func NewRoomsHandler(hub *signal.Hub, joinURLBase string) *RoomsHandler {
	return &RoomsHandler{hub: hub, joinURLBase: joinURLBase}
}

// Create handles POST /rooms.
func (h *RoomsHandler) Create(c *fiber.Ctx) error {
	roomID := h.hub.CreateRoom()
	return c.JSON(fiber.Map{
		"room_id":  roomID,
		"join_url": fmt.Sprintf("%s/%s", h.joinURLBase, roomID),
	})
}
