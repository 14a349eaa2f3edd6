package diarize

import (
	"testing"

	"github.com/jimsandwick99/videocall/internal/types"
)

func seg(start, end float64) types.MergedSegment {
	return types.MergedSegment{Segment: types.Segment{Start: start, End: end}}
}

func TestSilenceAlternation(t *testing.T) {
	// Start times 0.0, 0.3, 5.0, 5.2 give gaps of 0.3, 4.7 and 0.2
	// against the previous segment's end.
	segments := []types.MergedSegment{
		seg(0.0, 0.0),
		seg(0.3, 0.3),
		seg(5.0, 5.0),
		seg(5.2, 5.2),
	}

	Silence{Threshold: 0.5}.AssignSpeakers(segments)

	want := []types.Speaker{
		types.SpeakerInterviewer, // fixed convention
		types.SpeakerInterviewer, // gap 0.3 <= 0.5
		types.SpeakerInterviewee, // gap 4.7 > 0.5: flip
		types.SpeakerInterviewee, // gap 0.2 <= 0.5
	}
	for i, w := range want {
		if segments[i].Speaker != w {
			t.Errorf("segment %d: got %s, want %s", i, segments[i].Speaker, w)
		}
	}
}

func TestSilenceFirstSegmentAlwaysInterviewer(t *testing.T) {
	segments := []types.MergedSegment{seg(10, 11)}
	segments[0].Speaker = types.SpeakerInterviewee // pre-existing label is overwritten

	Silence{Threshold: 0.5}.AssignSpeakers(segments)
	if segments[0].Speaker != types.SpeakerInterviewer {
		t.Fatalf("first segment must be Interviewer, got %s", segments[0].Speaker)
	}
}

func TestSilenceDoubleFlipReturnsToInterviewer(t *testing.T) {
	segments := []types.MergedSegment{
		seg(0, 1),
		seg(3, 4), // flip to interviewee
		seg(6, 7), // flip back to interviewer
	}
	Silence{Threshold: 0.5}.AssignSpeakers(segments)
	if segments[2].Speaker != types.SpeakerInterviewer {
		t.Fatalf("expected flip back to Interviewer, got %s", segments[2].Speaker)
	}
}

func TestSilenceEmptyInput(t *testing.T) {
	Silence{Threshold: 0.5}.AssignSpeakers(nil) // must not panic
}

func TestNoopKeepsLabels(t *testing.T) {
	segments := []types.MergedSegment{seg(0, 1)}
	segments[0].Speaker = types.SpeakerInterviewee

	Noop{}.AssignSpeakers(segments)
	if segments[0].Speaker != types.SpeakerInterviewee {
		t.Fatal("noop diarizer must not touch labels")
	}
	if (Noop{}).Method() != MethodTrackLabels {
		t.Fatal("unexpected method name")
	}
}
