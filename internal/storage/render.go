package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jimsandwick99/videocall/internal/types"
)

// RenderText produces the human-readable transcript. With merged segments
// it is the timestamped conversation form, one line per segment; without
// them it falls back to per-speaker full text. Header lines start with
// '#' and are ignored by ParseText.
func RenderText(tr *types.MergedTranscript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Interview transcript for room %s\n", tr.RoomID)
	fmt.Fprintf(&b, "# Speaker assignment: %s\n", tr.DiarizationMethod)
	if tr.TimingNote != "" {
		fmt.Fprintf(&b, "# Note: %s\n", tr.TimingNote)
	}
	b.WriteString("\n")

	if len(tr.Segments) > 0 {
		for _, seg := range tr.Segments {
			fmt.Fprintf(&b, "[%s] %s: %s\n", formatOffset(seg.Start), seg.Speaker, seg.Text)
		}
		return b.String()
	}

	// No timed segments: per-speaker full-text fallback.
	for _, r := range tr.Results {
		fmt.Fprintf(&b, "%s:\n%s\n\n", r.Speaker, r.Text)
	}
	return b.String()
}

// formatOffset renders fractional seconds as MM:SS via floor division.
// Sub-second precision is lost here; two segments from different tracks
// with the same label may represent different absolute times.
func formatOffset(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

var lineRe = regexp.MustCompile(`^\[(\d{2,}):(\d{2})\] (Interviewer|Interviewee|Unknown): (.*)$`)

// ParsedLine is one (speaker, text) pair recovered from a rendered
// transcript.
type ParsedLine struct {
	Speaker types.Speaker
	Text    string
}

// ParseText recovers the ordered speaker/text pairs from the conversation
// form produced by RenderText. Rendering is a lossless projection of
// speaker, text and order, though not of sub-second timestamps.
func ParseText(rendered string) []ParsedLine {
	var out []ParsedLine
	for _, line := range strings.Split(rendered, "\n") {
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, ParsedLine{Speaker: types.Speaker(m[3]), Text: m[4]})
	}
	return out
}
