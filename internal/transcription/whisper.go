package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jimsandwick99/videocall/internal/types"
)

// WhisperLocal runs Python's OpenAI Whisper as a subprocess.
type WhisperLocal struct {
	modelName string
	tempDir   string
	mu        sync.Mutex // one whisper process at a time
}

// NewWhisperLocal creates a local whisper recognizer. Whisper availability
// is verified on first use, not at startup.
func NewWhisperLocal(model, tempDir string) *WhisperLocal {
	log.Printf("Initializing Python Whisper with model: %s", model)
	return &WhisperLocal{modelName: model, tempDir: tempDir}
}

// Recognize transcribes a WAV file, returning segment-level timestamps.
func (w *WhisperLocal) Recognize(ctx context.Context, wavPath string) (*types.TranscriptionResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	outDir := filepath.Join(w.tempDir, "whisper_output")
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	absPath, err := filepath.Abs(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}

	cmd := exec.CommandContext(ctx, "python", "-m", "whisper",
		absPath,
		"--model", w.modelName,
		"--output_dir", outDir,
		"--output_format", "json", // JSON carries the segments
		"--fp16", "False", // CPU compatibility
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	jsonPath := filepath.Join(outDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %v", err)
	}

	var wo whisperOutput
	if err := json.Unmarshal(jsonData, &wo); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	return wo.toResult(), nil
}

// whisperOutput matches Python Whisper's JSON output format. The shape is
// shared with the verbose_json response of the hosted API.
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (wo *whisperOutput) toResult() *types.TranscriptionResult {
	segments := make([]types.Segment, len(wo.Segments))
	for i, seg := range wo.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	duration := wo.Duration
	if duration == 0 && len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	return &types.TranscriptionResult{
		Text:     strings.TrimSpace(wo.Text),
		Language: wo.Language,
		Duration: duration,
		Segments: segments,
	}
}
