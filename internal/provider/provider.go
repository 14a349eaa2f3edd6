package provider

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSessionNotFound is returned when the external system no longer knows
// the requested session. Callers treat it as "absent", not as a failure.
var ErrSessionNotFound = errors.New("session not found")

// Session is the external recording system's representation of a
// recording-enabled conferencing room.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// Session status values reported by the recording provider.
const (
	SessionInProgress = "in-progress"
	SessionCompleted  = "completed"
)

// Participant is one identity that was ever connected to a session. The
// provider reports disconnected participants too, since by the time
// artifacts are ready the speaker may have already left.
type Participant struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Status   string `json:"status"`
}

// ArtifactInfo describes one recorded media file before download.
type ArtifactInfo struct {
	ID            string  `json:"id"`
	Codec         string  `json:"codec"`
	TrackName     string  `json:"track_name"`
	Size          int64   `json:"size"`
	Duration      float64 `json:"duration"`
	ParticipantID string  `json:"participant_id"`
}

// Client is the boundary to the cloud video/recording vendor. All methods
// take a context because every call is a network suspension point.
type Client interface {
	// CreateSession creates a recording-enabled session under the given name.
	CreateSession(ctx context.Context, name string) (Session, error)

	// GetSession fetches a session by id; ErrSessionNotFound when gone.
	GetSession(ctx context.Context, id string) (Session, error)

	// FindInProgressSession returns the first in-progress session whose
	// name contains the given substring; ErrSessionNotFound when none match.
	FindInProgressSession(ctx context.Context, nameContains string) (Session, error)

	// FindCompletedSession is the same lookup over completed sessions. Used
	// to recover artifacts when the vendor finalized a session the registry
	// no longer tracks.
	FindCompletedSession(ctx context.Context, nameContains string) (Session, error)

	// CompleteSession finalizes a session. Completing an already-completed
	// session is not an error.
	CompleteSession(ctx context.Context, id string) error

	// ListParticipants returns every participant ever associated with the
	// session, connected and disconnected.
	ListParticipants(ctx context.Context, sessionID string) ([]Participant, error)

	// ListArtifacts returns the session's recorded artifacts. An empty list
	// may mean processing is still in progress.
	ListArtifacts(ctx context.Context, sessionID string) ([]ArtifactInfo, error)

	// DownloadArtifact streams one artifact's media payload into w.
	DownloadArtifact(ctx context.Context, artifactID string, w io.Writer) error

	// IssueToken returns an access credential scoped to the session name,
	// embedding the given identity.
	IssueToken(ctx context.Context, sessionName, identity string) (string, error)
}
