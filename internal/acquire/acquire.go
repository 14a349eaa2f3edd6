package acquire

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/types"
)

// ErrNoArtifactsYet means the provider reported zero artifacts even after
// the bounded retries. It is a retryable "nothing to transcribe yet"
// outcome, not a crash.
var ErrNoArtifactsYet = errors.New("no artifacts available yet")

// Pipeline downloads every participant's recorded artifact as a local
// file labeled with the correct speaker, despite the provider's own
// metadata sometimes being missing or delayed.
type Pipeline struct {
	client        provider.Client
	recordingsDir string
	listRetries   int
	listDelay     time.Duration
}

// New creates an acquisition pipeline.
func New(client provider.Client, recordingsDir string, listRetries int, listDelay time.Duration) *Pipeline {
	return &Pipeline{
		client:        client,
		recordingsDir: recordingsDir,
		listRetries:   listRetries,
		listDelay:     listDelay,
	}
}

// Acquire lists, labels and downloads the session's artifacts into the
// per-room directory. A single failed download does not abort the others;
// Acquire fails as a whole only when every artifact fails.
func (p *Pipeline) Acquire(ctx context.Context, roomID string, session provider.Session) ([]types.Artifact, error) {
	infos, err := p.listWithRetry(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	// Disconnected participants must still be resolvable: by the time
	// artifacts are ready the speaker may have already left.
	participants, err := p.client.ListParticipants(ctx, session.ID)
	if err != nil {
		log.Printf("Room %s: participant listing failed, falling back to track names: %v", roomID, err)
		participants = nil
	}

	artifacts := resolveSpeakers(infos, participants)

	roomDir := filepath.Join(p.recordingsDir, roomID)
	if err := os.MkdirAll(roomDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create room directory: %v", err)
	}

	var wg sync.WaitGroup
	for i := range artifacts {
		wg.Add(1)
		go func(a *types.Artifact) {
			defer wg.Done()
			if err := p.download(ctx, roomDir, a); err != nil {
				a.Err = err.Error()
				log.Printf("Room %s: artifact %s download failed: %v", roomID, a.ID, err)
			}
		}(&artifacts[i])
	}
	wg.Wait()

	succeeded := 0
	for _, a := range artifacts {
		if a.Err == "" {
			succeeded++
		}
	}
	if succeeded == 0 {
		return artifacts, fmt.Errorf("all %d artifact downloads failed", len(artifacts))
	}
	log.Printf("Room %s: downloaded %d/%d artifacts", roomID, succeeded, len(artifacts))
	return artifacts, nil
}

// listWithRetry polls the artifact list. An empty list may mean the
// provider is still processing the recording, so it is retried before
// being treated as final.
func (p *Pipeline) listWithRetry(ctx context.Context, sessionID string) ([]provider.ArtifactInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= p.listRetries; attempt++ {
		infos, err := p.client.ListArtifacts(ctx, sessionID)
		if err != nil {
			lastErr = err
		} else if len(infos) > 0 {
			return infos, nil
		}
		if attempt < p.listRetries {
			log.Printf("Session %s: no artifacts yet (attempt %d/%d), waiting %s",
				sessionID, attempt, p.listRetries, p.listDelay)
			select {
			case <-time.After(p.listDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("artifact listing failed after %d attempts: %v", p.listRetries, lastErr)
	}
	return nil, ErrNoArtifactsYet
}

// download streams one artifact to its deterministic local path. The
// filename encodes speaker, track and id so downstream steps can re-derive
// the speaker purely from the name.
func (p *Pipeline) download(ctx context.Context, roomDir string, a *types.Artifact) error {
	a.LocalPath = filepath.Join(roomDir, LocalFilename(a))

	f, err := os.Create(a.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", a.LocalPath, err)
	}
	defer f.Close()

	if err := p.client.DownloadArtifact(ctx, a.ID, f); err != nil {
		os.Remove(a.LocalPath)
		a.LocalPath = ""
		return err
	}
	return nil
}

// LocalFilename builds the deterministic {speaker}_{track}_{id}.{codec}
// name for an artifact.
func LocalFilename(a *types.Artifact) string {
	codec := a.Codec
	if codec == "" {
		codec = "bin"
	}
	return fmt.Sprintf("%s_%s_%s.%s",
		strings.ToLower(string(a.Speaker)), sanitize(a.TrackName), a.ID, codec)
}

// SpeakerFromFilename re-derives the speaker label from a local artifact
// filename produced by LocalFilename.
func SpeakerFromFilename(path string) types.Speaker {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(name, "interviewer_"):
		return types.SpeakerInterviewer
	case strings.HasPrefix(name, "interviewee_"):
		return types.SpeakerInterviewee
	}
	return types.SpeakerUnknown
}

func sanitize(name string) string {
	if name == "" {
		return "track"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
