package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/jimsandwick99/videocall/internal/acquire"
	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/queue"
	"github.com/jimsandwick99/videocall/internal/registry"
	"github.com/jimsandwick99/videocall/internal/types"
)

// RecordingHandler drives the recording lifecycle: start, stop (which
// acknowledges after download and detaches transcription), manual
// download re-trigger, and status.
type RecordingHandler struct {
	reg        *registry.Registry
	client     provider.Client
	pipeline   *acquire.Pipeline
	workerPool *queue.WorkerPool
}

// NewRecordingHandler creates the handler. reg and client are nil when
// recording credentials are not configured; the handler then reports the
// feature unavailable without affecting room creation or signaling.
func NewRecordingHandler(reg *registry.Registry, client provider.Client, pipeline *acquire.Pipeline, workerPool *queue.WorkerPool) *RecordingHandler {
	return &RecordingHandler{reg: reg, client: client, pipeline: pipeline, workerPool: workerPool}
}

type startRequest struct {
	RoomID string     `json:"room_id"`
	Role   types.Role `json:"role"`
}

type roomRequest struct {
	RoomID string `json:"room_id"`
}

func (h *RecordingHandler) configured() bool { return h.reg != nil && h.client != nil }

// Start handles POST /recording/start.
func (h *RecordingHandler) Start(c *fiber.Ctx) error {
	if !h.configured() {
		return errRecordingUnavailable(c)
	}

	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body", "code": "ERR_INVALID_BODY"})
	}
	if req.RoomID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "room_id is required", "code": "ERR_NO_ROOM"})
	}
	if !req.Role.Valid() {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("role must be %q or %q", types.RoleInterviewer, types.RoleInterviewee),
			"code":  "ERR_INVALID_ROLE",
		})
	}

	result, err := h.reg.StartSession(c.Context(), req.RoomID, req.Role)
	if err != nil {
		log.Printf("Recording start failed for room %s: %v", req.RoomID, err)
		return c.Status(502).JSON(fiber.Map{"error": err.Error(), "code": "ERR_SESSION_START"})
	}

	return c.JSON(fiber.Map{
		"session":  result.Session,
		"token":    result.Token,
		"identity": result.Identity,
	})
}

// Stop handles POST /recording/stop. It finalizes the session, downloads
// the artifacts, and acknowledges with 202 once transcription is
// enqueued. Transcription itself can outlive any client timeout, so the
// caller polls the transcript endpoint for completion.
func (h *RecordingHandler) Stop(c *fiber.Ctx) error {
	if !h.configured() {
		return errRecordingUnavailable(c)
	}

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "room_id is required", "code": "ERR_NO_ROOM"})
	}

	session, err := h.reg.StopSession(c.Context(), req.RoomID)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownRoom) {
			return c.Status(404).JSON(fiber.Map{
				"error": "No recording session tracked for this room",
				"code":  "ERR_UNKNOWN_ROOM",
				"hint":  "POST /recording/download can recover a session by name after a restart",
			})
		}
		return c.Status(502).JSON(fiber.Map{"error": err.Error(), "code": "ERR_SESSION_STOP"})
	}

	return h.downloadAndEnqueue(c, req.RoomID, session)
}

// Download handles POST /recording/download, the manual re-trigger. When
// the in-memory registry lost the mapping (process restart), the session
// is looked up by name on the external system instead.
func (h *RecordingHandler) Download(c *fiber.Ctx) error {
	if !h.configured() {
		return errRecordingUnavailable(c)
	}

	var req roomRequest
	if err := c.BodyParser(&req); err != nil || req.RoomID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "room_id is required", "code": "ERR_NO_ROOM"})
	}

	session, err := h.reg.StopSession(c.Context(), req.RoomID)
	if errors.Is(err, registry.ErrUnknownRoom) {
		session, err = h.client.FindInProgressSession(c.Context(), req.RoomID)
		if err == nil {
			err = h.client.CompleteSession(c.Context(), session.ID)
		} else if errors.Is(err, provider.ErrSessionNotFound) {
			// The vendor may have finalized the session on its own while the
			// registry was down; its artifacts are still downloadable.
			session, err = h.client.FindCompletedSession(c.Context(), req.RoomID)
			if errors.Is(err, provider.ErrSessionNotFound) {
				return c.Status(404).JSON(fiber.Map{
					"error": "No session found for this room, tracked or by name lookup",
					"code":  "ERR_UNKNOWN_ROOM",
				})
			}
		}
	}
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error(), "code": "ERR_SESSION_STOP"})
	}

	return h.downloadAndEnqueue(c, req.RoomID, session)
}

// Status handles GET /recording/status/:roomId.
func (h *RecordingHandler) Status(c *fiber.Ctx) error {
	if !h.configured() {
		return errRecordingUnavailable(c)
	}

	st, err := h.reg.Status(c.Params("roomId"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "No active recording for this room", "code": "ERR_UNKNOWN_ROOM"})
	}
	return c.JSON(fiber.Map{
		"active":           st.Active,
		"session_id":       st.SessionID,
		"duration_seconds": st.Duration,
	})
}

func (h *RecordingHandler) downloadAndEnqueue(c *fiber.Ctx, roomID string, session provider.Session) error {
	artifacts, err := h.pipeline.Acquire(c.Context(), roomID, session)
	if err != nil {
		if errors.Is(err, acquire.ErrNoArtifactsYet) {
			// Not a failure: the provider is still processing. Retryable.
			return c.JSON(fiber.Map{
				"artifacts_downloaded": 0,
				"message":              "No artifacts available yet, retry with POST /recording/download",
			})
		}
		return c.Status(502).JSON(fiber.Map{"error": err.Error(), "code": "ERR_DOWNLOAD_FAILED"})
	}

	downloaded := 0
	for _, a := range artifacts {
		if a.Err == "" {
			downloaded++
		}
	}

	var message string
	if h.workerPool != nil {
		h.workerPool.EnqueueJob(queue.NewJob(roomID, session.ID, artifacts))
		message = fmt.Sprintf("Transcription started, poll GET /transcript/%s for the result", roomID)
	} else {
		message = "Artifacts downloaded; transcription is not configured"
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"artifacts_downloaded": downloaded,
		"message":              message,
	})
}

func errRecordingUnavailable(c *fiber.Ctx) error {
	return c.Status(503).JSON(fiber.Map{
		"error": "Recording provider is not configured",
		"code":  "ERR_RECORDING_UNAVAILABLE",
	})
}
