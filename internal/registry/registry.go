package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/types"
)

// ErrUnknownRoom is returned when an operation names a room the registry
// has never seen (or has already forgotten, e.g. after a restart).
var ErrUnknownRoom = errors.New("no recording session for room")

// mapping correlates an application room with its external session.
type mapping struct {
	SessionID   string
	SessionName string
	StartedAt   time.Time
}

// StartResult is what StartSession hands back to the HTTP layer.
type StartResult struct {
	Session  provider.Session
	Token    string
	Identity string
}

// Status reports a room's recording state.
type Status struct {
	Active    bool
	SessionID string
	Duration  float64
}

// Registry is the single source of truth correlating application room ids
// with vendor-side recording sessions. It is in-memory only: losing it on
// restart is a recoverable-but-degraded condition handled by the
// recovery lookup in StartSession and the manual download re-trigger.
type Registry struct {
	client provider.Client

	mu       sync.Mutex
	sessions map[string]*mapping
	locks    map[string]*sync.Mutex
}

// New creates a registry backed by the given provider client.
func New(client provider.Client) *Registry {
	return &Registry{
		client:   client,
		sessions: make(map[string]*mapping),
		locks:    make(map[string]*sync.Mutex),
	}
}

// roomLock returns the per-room mutex, creating it on first use. Distinct
// rooms proceed concurrently; within a room, read-then-create is atomic.
func (r *Registry) roomLock(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roomID] = l
	}
	return l
}

func (r *Registry) get(roomID string) (*mapping, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.sessions[roomID]
	return m, ok
}

func (r *Registry) put(roomID string, m *mapping) {
	r.mu.Lock()
	r.sessions[roomID] = m
	r.mu.Unlock()
}

func (r *Registry) delete(roomID string) {
	r.mu.Lock()
	delete(r.sessions, roomID)
	r.mu.Unlock()
}

// SessionName builds the external session name for a room. The room id is
// embedded so a lost registry can be recovered by name lookup.
func SessionName(roomID string) string {
	return "interview-" + roomID
}

// StartSession resolves the recording session for a room, creating one if
// needed, and issues a credential for the role's fixed identity. At most
// one live session exists per room: concurrent callers for the same room
// serialize on the room lock and the second observes the first's result.
func (r *Registry) StartSession(ctx context.Context, roomID string, role types.Role) (*StartResult, error) {
	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	session, err := r.resolveSession(ctx, roomID, role)
	if err != nil {
		return nil, err
	}

	identity := role.Identity()
	token, err := r.client.IssueToken(ctx, session.Name, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %v", err)
	}

	return &StartResult{Session: session, Token: token, Identity: identity}, nil
}

// resolveSession implements the reuse → recover → create chain. Caller
// holds the room lock.
func (r *Registry) resolveSession(ctx context.Context, roomID string, role types.Role) (provider.Session, error) {
	// Reuse a live mapping if the external session still exists.
	if m, ok := r.get(roomID); ok {
		session, err := r.client.GetSession(ctx, m.SessionID)
		if err == nil {
			return session, nil
		}
		// Session vanished externally; self-heal by recreating.
		log.Printf("Room %s: stored session %s no longer fetchable (%v), recreating", roomID, m.SessionID, err)
		r.delete(roomID)
	}

	// The non-initiating role may be joining after a server restart wiped
	// the registry: adopt an in-progress session matching the room id.
	if role == types.RoleInterviewee {
		session, err := r.client.FindInProgressSession(ctx, roomID)
		if err == nil {
			startedAt := time.Now().Add(-time.Duration(session.Duration * float64(time.Second)))
			r.put(roomID, &mapping{
				SessionID:   session.ID,
				SessionName: session.Name,
				StartedAt:   startedAt,
			})
			log.Printf("Room %s: adopted in-progress session %s (running %.0fs)", roomID, session.ID, session.Duration)
			return session, nil
		}
		if !errors.Is(err, provider.ErrSessionNotFound) {
			return provider.Session{}, fmt.Errorf("session recovery lookup failed: %v", err)
		}
	}

	session, err := r.client.CreateSession(ctx, SessionName(roomID))
	if err != nil {
		return provider.Session{}, fmt.Errorf("failed to create recording session: %v", err)
	}
	r.put(roomID, &mapping{
		SessionID:   session.ID,
		SessionName: session.Name,
		StartedAt:   time.Now(),
	})
	log.Printf("Room %s: created recording session %s (%s)", roomID, session.ID, session.Name)
	return session, nil
}

// StopSession finalizes the room's session and removes the mapping. A
// missing mapping is a reportable consistency problem, not a silent
// no-op. Finalizing an already-finalized session is not fatal. The
// mapping is removed regardless of downstream download outcome.
func (r *Registry) StopSession(ctx context.Context, roomID string) (provider.Session, error) {
	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	m, ok := r.get(roomID)
	if !ok {
		return provider.Session{}, ErrUnknownRoom
	}

	if err := r.client.CompleteSession(ctx, m.SessionID); err != nil && !errors.Is(err, provider.ErrSessionNotFound) {
		r.delete(roomID)
		return provider.Session{}, fmt.Errorf("failed to finalize session %s: %v", m.SessionID, err)
	}

	session := provider.Session{
		ID:        m.SessionID,
		Name:      m.SessionName,
		Status:    provider.SessionCompleted,
		CreatedAt: m.StartedAt,
	}
	r.delete(roomID)
	log.Printf("Room %s: session %s finalized and unmapped", roomID, m.SessionID)
	return session, nil
}

// Status reports whether a room has a live recording session.
func (r *Registry) Status(roomID string) (Status, error) {
	m, ok := r.get(roomID)
	if !ok {
		return Status{}, ErrUnknownRoom
	}
	return Status{
		Active:    true,
		SessionID: m.SessionID,
		Duration:  time.Since(m.StartedAt).Seconds(),
	}, nil
}
