package diarize

import (
	"github.com/jimsandwick99/videocall/internal/types"
)

// Method names recorded alongside the output document so consumers know
// how speakers were assigned.
const (
	MethodTrackLabels = "track-labels"
	MethodSilenceGap  = "silence-gap"
)

// Diarizer assigns speaker labels to merged segments.
type Diarizer interface {
	AssignSpeakers(segments []types.MergedSegment)
	Method() string
}

// Noop keeps the labels the segments already carry.
type Noop struct{}

func (Noop) AssignSpeakers(segments []types.MergedSegment) {}
func (Noop) Method() string                                { return MethodTrackLabels }

// Silence is the timing-heuristic fallback used when no reliable
// per-segment speaker metadata exists. It is a two-state alternator
// driven by silence-gap detection, not by any audio content analysis,
// and is explicitly inferior to a real diarization system.
type Silence struct {
	// Threshold is the gap in seconds above which the speaker flips.
	Threshold float64
}

func (Silence) Method() string { return MethodSilenceGap }

// AssignSpeakers relabels the sequence in order. The first segment is
// always the interviewer, a fixed convention rather than a guess. Each
// later segment flips speaker relative to its predecessor when the gap
// from the previous segment's end exceeds the threshold, otherwise it
// inherits the predecessor's speaker.
func (s Silence) AssignSpeakers(segments []types.MergedSegment) {
	if len(segments) == 0 {
		return
	}
	segments[0].Speaker = types.SpeakerInterviewer
	for i := 1; i < len(segments); i++ {
		speaker := segments[i-1].Speaker
		gap := segments[i].Start - segments[i-1].End
		if gap > s.Threshold {
			speaker = flip(speaker)
		}
		segments[i].Speaker = speaker
	}
}

func flip(s types.Speaker) types.Speaker {
	if s == types.SpeakerInterviewer {
		return types.SpeakerInterviewee
	}
	return types.SpeakerInterviewer
}
