package transcription

import (
	"context"

	"github.com/jimsandwick99/videocall/internal/types"
)

// Recognizer is a pluggable speech-recognition backend. Implementations
// must request segment-level timestamps.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) (*types.TranscriptionResult, error)
}
