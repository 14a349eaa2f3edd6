package queue

import (
	"testing"
	"time"

	"github.com/jimsandwick99/videocall/internal/diarize"
	"github.com/jimsandwick99/videocall/internal/storage"
	"github.com/jimsandwick99/videocall/internal/transcription"
	"github.com/jimsandwick99/videocall/internal/types"
)

func TestPickDiarizer(t *testing.T) {
	wp := NewWorkerPool(1, nil, 0.5, nil, nil, nil)

	trusted := []types.Artifact{
		{ID: "a", Resolution: types.ResolvedByParticipant},
		{ID: "b", Resolution: types.ResolvedByTrackName},
	}
	if _, ok := wp.pickDiarizer(trusted).(diarize.Noop); !ok {
		t.Fatal("trusted labels must not be overwritten by the silence heuristic")
	}

	guessed := []types.Artifact{
		{ID: "a", Resolution: types.ResolvedByTrackName},
		{ID: "b", Resolution: types.ResolvedByOrdinal},
	}
	d, ok := wp.pickDiarizer(guessed).(diarize.Silence)
	if !ok {
		t.Fatal("ordinal-resolved labels need the silence-gap fallback")
	}
	if d.Threshold != 0.5 {
		t.Fatalf("threshold not propagated: %v", d.Threshold)
	}
}

// A job whose artifacts all failed to download still produces a document:
// failures are represented, never dropped, and never crash the worker.
func TestProcessJobWithFailedArtifacts(t *testing.T) {
	dir := t.TempDir()
	ls := storage.NewLocalStorage(dir)
	engine := transcription.NewEngine(nil, t.TempDir())

	wp := NewWorkerPool(1, engine, 0.5, ls, nil, nil)
	wp.Start()

	artifacts := []types.Artifact{
		{ID: "a1", Speaker: types.SpeakerInterviewer, Resolution: types.ResolvedByTrackName, Err: "download failed"},
		{ID: "a2", Speaker: types.SpeakerInterviewee, Resolution: types.ResolvedByTrackName, Err: "download failed"},
	}
	wp.EnqueueJob(NewJob("room1", "SES1", artifacts))

	deadline := time.After(5 * time.Second)
	for {
		// transcript.txt is written last, so its presence means both
		// forms are on disk.
		if _, ok := ls.TranscriptPath("room1", "text"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("transcript was not produced in time")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if _, ok := ls.TranscriptPath("room1", "json"); !ok {
		t.Fatal("json form missing")
	}
}
