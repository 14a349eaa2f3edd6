package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jimsandwick99/videocall/internal/acquire"
	"github.com/jimsandwick99/videocall/internal/transcription"
	"github.com/jimsandwick99/videocall/internal/types"
)

func TestFormatOffsetFloorsToMMSS(t *testing.T) {
	cases := map[float64]string{
		0.0:    "00:00",
		0.9:    "00:00",
		59.99:  "00:59",
		60.0:   "01:00",
		125.4:  "02:05",
		3661.0: "61:01",
	}
	for in, want := range cases {
		if got := formatOffset(in); got != want {
			t.Errorf("formatOffset(%v): got %s, want %s", in, got, want)
		}
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	tr := &types.MergedTranscript{
		RoomID:            "room1",
		DiarizationMethod: "track-labels",
		TimingNote:        types.TimingNote,
		Segments: []types.MergedSegment{
			{Segment: types.Segment{Start: 0.0, End: 1.2, Text: "Hello there"}, Speaker: types.SpeakerInterviewer},
			{Segment: types.Segment{Start: 1.5, End: 3.0, Text: "Hi, thanks for having me"}, Speaker: types.SpeakerInterviewee},
			{Segment: types.Segment{Start: 64.2, End: 66.0, Text: "Tell me about yourself"}, Speaker: types.SpeakerInterviewer},
		},
	}

	parsed := ParseText(RenderText(tr))
	if len(parsed) != len(tr.Segments) {
		t.Fatalf("expected %d lines, got %d", len(tr.Segments), len(parsed))
	}
	for i, seg := range tr.Segments {
		if parsed[i].Speaker != seg.Speaker || parsed[i].Text != seg.Text {
			t.Errorf("line %d: got (%s, %q), want (%s, %q)",
				i, parsed[i].Speaker, parsed[i].Text, seg.Speaker, seg.Text)
		}
	}
}

func TestRenderFallbackWithoutSegments(t *testing.T) {
	tr := &types.MergedTranscript{
		RoomID:            "room1",
		DiarizationMethod: "track-labels",
		Results: []*types.TranscriptionResult{
			{Speaker: types.SpeakerInterviewer, Text: "full interviewer text"},
			{Speaker: types.SpeakerInterviewee, Text: "full interviewee text"},
		},
	}

	rendered := RenderText(tr)
	if !strings.Contains(rendered, "full interviewer text") || !strings.Contains(rendered, "full interviewee text") {
		t.Fatalf("fallback form missing speaker texts:\n%s", rendered)
	}
}

func TestSaveTranscriptWritesBothForms(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)

	tr := &types.MergedTranscript{
		RoomID:            "room1",
		ArtifactCount:     1,
		DiarizationMethod: "track-labels",
		GeneratedAt:       time.Now(),
		Segments: []types.MergedSegment{
			{Segment: types.Segment{Start: 0, End: 1, Text: "hi"}, Speaker: types.SpeakerInterviewer},
		},
	}

	txtPath, jsonPath, err := ls.SaveTranscript(tr)
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if filepath.Dir(txtPath) != filepath.Join(dir, "room1") {
		t.Fatalf("transcript outside room dir: %s", txtPath)
	}
	for _, p := range []string{txtPath, jsonPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
	}

	if _, ok := ls.TranscriptPath("room1", "text"); !ok {
		t.Fatal("text transcript should be discoverable")
	}
	if _, ok := ls.TranscriptPath("room1", "json"); !ok {
		t.Fatal("json transcript should be discoverable")
	}
	if _, ok := ls.TranscriptPath("other-room", "text"); ok {
		t.Fatal("unknown room must report no transcript")
	}
}

// Two single-speaker tracks end to end: label from filename, merge,
// render, and check order and line shape.
func TestTwoArtifactScenario(t *testing.T) {
	interviewer := &types.TranscriptionResult{
		ArtifactID: "abc123",
		Speaker:    acquire.SpeakerFromFilename("interviewer_track_abc123.opus"),
		Duration:   4.0,
		Segments:   []types.Segment{{Start: 0.0, End: 1.0, Text: "Hello"}},
	}
	interviewee := &types.TranscriptionResult{
		ArtifactID: "def456",
		Speaker:    acquire.SpeakerFromFilename("interviewee_track_def456.opus"),
		Duration:   3.0,
		Segments:   []types.Segment{{Start: 0.5, End: 1.5, Text: "Hi there"}},
	}

	merged := transcription.Merge([]*types.TranscriptionResult{interviewer, interviewee})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged segments, got %d", len(merged))
	}
	if merged[0].Speaker != types.SpeakerInterviewer || merged[0].Start != 0.0 || merged[0].Text != "Hello" {
		t.Fatalf("unexpected first segment: %+v", merged[0])
	}
	if merged[1].Speaker != types.SpeakerInterviewee || merged[1].Start != 0.5 || merged[1].Text != "Hi there" {
		t.Fatalf("unexpected second segment: %+v", merged[1])
	}

	tr := &types.MergedTranscript{
		RoomID:            "room1",
		ArtifactCount:     2,
		Segments:          merged,
		DiarizationMethod: "track-labels",
	}
	rendered := RenderText(tr)

	helloIdx := strings.Index(rendered, "[00:00] Interviewer: Hello")
	hiIdx := strings.Index(rendered, "[00:00] Interviewee: Hi there")
	if helloIdx == -1 || hiIdx == -1 {
		t.Fatalf("rendered transcript missing expected lines:\n%s", rendered)
	}
	if helloIdx > hiIdx {
		t.Fatal("interviewer line must come first")
	}
}
