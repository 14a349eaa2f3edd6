package queue

import (
	"time"

	"github.com/jimsandwick99/videocall/internal/types"
)

// Job is one room's transcribe-merge-render pipeline, run detached from
// the HTTP request that triggered it.
type Job struct {
	RoomID    string
	SessionID string
	Artifacts []types.Artifact
	Status    string
	Error     error
	CreatedAt time.Time
}

// NewJob creates a queued job for a room's downloaded artifacts.
func NewJob(roomID, sessionID string, artifacts []types.Artifact) *Job {
	return &Job{
		RoomID:    roomID,
		SessionID: sessionID,
		Artifacts: artifacts,
		Status:    types.StatusQueued,
		CreatedAt: time.Now(),
	}
}
