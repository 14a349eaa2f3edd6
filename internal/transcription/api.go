package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jimsandwick99/videocall/internal/types"
)

const defaultAPIURL = "https://api.openai.com/v1/audio/transcriptions"

// WhisperAPI is a hosted speech-to-text recognizer speaking the OpenAI
// audio.transcriptions protocol. verbose_json is requested so the
// response carries segment timestamps.
type WhisperAPI struct {
	apiKey string
	apiURL string
	model  string
	hc     *http.Client
}

// NewWhisperAPI creates a hosted recognizer. apiURL may be empty for the
// OpenAI default.
func NewWhisperAPI(apiKey, apiURL, model string) *WhisperAPI {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperAPI{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		// Long recordings take a long time to process
		hc: &http.Client{Timeout: 30 * time.Minute},
	}
}

// Recognize submits the audio file and parses the segmented response.
func (w *WhisperAPI) Recognize(ctx context.Context, wavPath string) (*types.TranscriptionResult, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", w.model); err != nil {
		return nil, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := mw.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisper api http %d: %s", resp.StatusCode, string(b))
	}

	var wo whisperOutput
	if err := json.NewDecoder(resp.Body).Decode(&wo); err != nil {
		return nil, err
	}
	return wo.toResult(), nil
}
