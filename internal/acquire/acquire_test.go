package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/types"
)

// fakeClient serves canned artifact and participant lists.
type fakeClient struct {
	mu           sync.Mutex
	artifacts    []provider.ArtifactInfo
	participants []provider.Participant
	listCalls    int
	emptyLists   int // number of initial calls answering empty
	failDownload map[string]bool
}

func (f *fakeClient) CreateSession(ctx context.Context, name string) (provider.Session, error) {
	return provider.Session{}, nil
}
func (f *fakeClient) GetSession(ctx context.Context, id string) (provider.Session, error) {
	return provider.Session{}, nil
}
func (f *fakeClient) FindInProgressSession(ctx context.Context, nameContains string) (provider.Session, error) {
	return provider.Session{}, provider.ErrSessionNotFound
}
func (f *fakeClient) FindCompletedSession(ctx context.Context, nameContains string) (provider.Session, error) {
	return provider.Session{}, provider.ErrSessionNotFound
}
func (f *fakeClient) CompleteSession(ctx context.Context, id string) error { return nil }

func (f *fakeClient) ListParticipants(ctx context.Context, sessionID string) ([]provider.Participant, error) {
	return f.participants, nil
}

func (f *fakeClient) ListArtifacts(ctx context.Context, sessionID string) ([]provider.ArtifactInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listCalls <= f.emptyLists {
		return nil, nil
	}
	return f.artifacts, nil
}

func (f *fakeClient) DownloadArtifact(ctx context.Context, artifactID string, w io.Writer) error {
	if f.failDownload[artifactID] {
		return fmt.Errorf("simulated download failure")
	}
	_, err := w.Write([]byte("media-bytes-" + artifactID))
	return err
}

func (f *fakeClient) IssueToken(ctx context.Context, sessionName, identity string) (string, error) {
	return "", nil
}

func newPipeline(t *testing.T, client provider.Client) *Pipeline {
	t.Helper()
	return New(client, t.TempDir(), 3, time.Millisecond)
}

func TestAcquireDownloadsAndLabels(t *testing.T) {
	fc := &fakeClient{
		artifacts: []provider.ArtifactInfo{
			{ID: "abc123", Codec: "opus", TrackName: "audio-1", ParticipantID: "PA1", Duration: 4.0},
			{ID: "def456", Codec: "opus", TrackName: "audio-2", ParticipantID: "PA2", Duration: 3.0},
		},
		participants: []provider.Participant{
			{ID: "PA1", Identity: "Interviewer", Status: "disconnected"},
			{ID: "PA2", Identity: "Interviewee", Status: "connected"},
		},
	}
	p := newPipeline(t, fc)

	artifacts, err := p.Acquire(context.Background(), "room1", provider.Session{ID: "SES1"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}

	if artifacts[0].Speaker != types.SpeakerInterviewer || artifacts[0].Resolution != types.ResolvedByParticipant {
		t.Fatalf("artifact 0: got %s via %s", artifacts[0].Speaker, artifacts[0].Resolution)
	}
	if artifacts[1].Speaker != types.SpeakerInterviewee {
		t.Fatalf("artifact 1: got %s", artifacts[1].Speaker)
	}

	for _, a := range artifacts {
		if a.Err != "" {
			t.Fatalf("artifact %s unexpectedly failed: %s", a.ID, a.Err)
		}
		data, err := os.ReadFile(a.LocalPath)
		if err != nil {
			t.Fatalf("reading %s: %v", a.LocalPath, err)
		}
		if string(data) != "media-bytes-"+a.ID {
			t.Fatalf("artifact %s content mismatch", a.ID)
		}
		// The speaker must be re-derivable from the filename alone.
		if got := SpeakerFromFilename(a.LocalPath); got != a.Speaker {
			t.Fatalf("filename %s re-derives %s, want %s", filepath.Base(a.LocalPath), got, a.Speaker)
		}
	}
}

func TestAcquireRetriesEmptyListing(t *testing.T) {
	fc := &fakeClient{
		emptyLists: 2,
		artifacts: []provider.ArtifactInfo{
			{ID: "a1", Codec: "opus", TrackName: "interviewer_track"},
		},
	}
	p := newPipeline(t, fc)

	artifacts, err := p.Acquire(context.Background(), "room1", provider.Session{ID: "SES1"})
	if err != nil {
		t.Fatalf("Acquire should succeed after retries: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	if fc.listCalls != 3 {
		t.Fatalf("expected 3 listing attempts, got %d", fc.listCalls)
	}
}

func TestAcquireNoArtifactsIsTypedOutcome(t *testing.T) {
	fc := &fakeClient{emptyLists: 100}
	p := newPipeline(t, fc)

	_, err := p.Acquire(context.Background(), "room1", provider.Session{ID: "SES1"})
	if !errors.Is(err, ErrNoArtifactsYet) {
		t.Fatalf("expected ErrNoArtifactsYet, got %v", err)
	}
}

func TestAcquirePartialDownloadFailure(t *testing.T) {
	fc := &fakeClient{
		artifacts: []provider.ArtifactInfo{
			{ID: "ok1", Codec: "opus", TrackName: "interviewer_track"},
			{ID: "bad", Codec: "opus", TrackName: "interviewee_track"},
		},
		failDownload: map[string]bool{"bad": true},
	}
	p := newPipeline(t, fc)

	artifacts, err := p.Acquire(context.Background(), "room1", provider.Session{ID: "SES1"})
	if err != nil {
		t.Fatalf("one failed download must not fail Acquire: %v", err)
	}

	var okArt, badArt *types.Artifact
	for i := range artifacts {
		switch artifacts[i].ID {
		case "ok1":
			okArt = &artifacts[i]
		case "bad":
			badArt = &artifacts[i]
		}
	}
	if okArt.Err != "" {
		t.Fatalf("ok1 should have downloaded: %s", okArt.Err)
	}
	if badArt.Err == "" {
		t.Fatal("bad should carry an error marker")
	}
}

func TestAcquireAllDownloadsFailedIsHardFailure(t *testing.T) {
	fc := &fakeClient{
		artifacts: []provider.ArtifactInfo{
			{ID: "bad1", Codec: "opus", TrackName: "interviewer_track"},
			{ID: "bad2", Codec: "opus", TrackName: "interviewee_track"},
		},
		failDownload: map[string]bool{"bad1": true, "bad2": true},
	}
	p := newPipeline(t, fc)

	if _, err := p.Acquire(context.Background(), "room1", provider.Session{ID: "SES1"}); err == nil {
		t.Fatal("zero successful downloads must fail Acquire as a whole")
	}
}

func TestResolveSpeakersFallbackChain(t *testing.T) {
	infos := []provider.ArtifactInfo{
		{ID: "a1", ParticipantID: "PA1"},                  // participant tier
		{ID: "a2", TrackName: "interviewee_screen_audio"}, // keyword tier
		{ID: "a3", TrackName: "audio-0"},                  // ordinal tier
		{ID: "a4", TrackName: "audio-1"},                  // ordinal tier
	}
	participants := []provider.Participant{{ID: "PA1", Identity: "Interviewer-host"}}

	artifacts := resolveSpeakers(infos, participants)

	want := []struct {
		speaker types.Speaker
		tier    string
	}{
		{types.SpeakerInterviewer, types.ResolvedByParticipant},
		{types.SpeakerInterviewee, types.ResolvedByTrackName},
		{types.SpeakerInterviewer, types.ResolvedByOrdinal},
		{types.SpeakerInterviewee, types.ResolvedByOrdinal},
	}
	for i, w := range want {
		if artifacts[i].Speaker != w.speaker || artifacts[i].Resolution != w.tier {
			t.Errorf("artifact %d: got (%s, %s), want (%s, %s)",
				i, artifacts[i].Speaker, artifacts[i].Resolution, w.speaker, w.tier)
		}
	}
}

func TestLocalFilenameDeterministic(t *testing.T) {
	a := &types.Artifact{ID: "abc123", Codec: "opus", TrackName: "mic audio/1", Speaker: types.SpeakerInterviewer}
	got := LocalFilename(a)
	want := "interviewer_mic_audio_1_abc123.opus"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSpeakerFromFilename(t *testing.T) {
	cases := map[string]types.Speaker{
		"interviewer_track_abc123.opus": types.SpeakerInterviewer,
		"interviewee_track_def456.opus": types.SpeakerInterviewee,
		"mystery_track.opus":            types.SpeakerUnknown,
	}
	for name, want := range cases {
		if got := SpeakerFromFilename(filepath.Join("recordings", "r1", name)); got != want {
			t.Errorf("%s: got %s, want %s", name, got, want)
		}
	}
}
