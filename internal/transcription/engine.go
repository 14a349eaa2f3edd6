package transcription

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/jimsandwick99/videocall/internal/acquire"
	"github.com/jimsandwick99/videocall/internal/types"
)

// FailedText marks a transcription that could not be produced. The
// failure is represented in the result set, never thrown away.
const FailedText = "[Transcription failed]"

// Engine turns downloaded artifacts into per-artifact timed segments and
// merges them into one globally ordered transcript.
type Engine struct {
	recognizer Recognizer
	tempDir    string
}

// NewEngine creates a transcription engine around a recognizer.
func NewEngine(recognizer Recognizer, tempDir string) *Engine {
	return &Engine{recognizer: recognizer, tempDir: tempDir}
}

// Transcribe transcodes and recognizes one artifact. It never fails the
// batch: on transcoding or recognition failure it returns a result with
// FailedText and the error detail preserved, speaker still resolved.
func (e *Engine) Transcribe(ctx context.Context, artifact types.Artifact) *types.TranscriptionResult {
	speaker := artifact.Speaker
	if speaker == "" || speaker == types.SpeakerUnknown {
		// Re-derive from the deterministic filename when the stored label
		// is unavailable at this stage.
		speaker = acquire.SpeakerFromFilename(artifact.LocalPath)
	}

	fail := func(err error) *types.TranscriptionResult {
		log.Printf("Artifact %s: transcription failed: %v", artifact.ID, err)
		return &types.TranscriptionResult{
			ArtifactID: artifact.ID,
			Speaker:    speaker,
			Text:       FailedText,
			Err:        err.Error(),
		}
	}

	if artifact.Err != "" {
		return fail(fmt.Errorf("artifact was not downloaded: %s", artifact.Err))
	}

	wavPath, err := NormalizeAudio(artifact.LocalPath, e.tempDir)
	if err != nil {
		return fail(err)
	}
	defer os.Remove(wavPath)

	result, err := e.recognizer.Recognize(ctx, wavPath)
	if err != nil {
		return fail(err)
	}

	result.ArtifactID = artifact.ID
	result.Speaker = speaker
	log.Printf("Artifact %s (%s): %d segments, %.2fs", artifact.ID, speaker, len(result.Segments), result.Duration)
	return result
}

// Merge flattens every segment from every result into one sequence tagged
// with speaker and source artifact, sorted ascending by start offset.
// The sort is stable: ties keep per-artifact relative order. Overlapping
// segments from different tracks both appear, adjacent; no deduplication.
// Offsets stay relative to each artifact's own start.
func Merge(results []*types.TranscriptionResult) []types.MergedSegment {
	var merged []types.MergedSegment
	for _, r := range results {
		if r == nil || r.Failed() {
			continue
		}
		for _, seg := range r.Segments {
			merged = append(merged, types.MergedSegment{
				Segment:    seg,
				Speaker:    r.Speaker,
				ArtifactID: r.ArtifactID,
			})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}
