package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jimsandwick99/videocall/internal/types"
)

// LocalStorage persists per-room recording artifacts and the rendered
// transcript documents.
type LocalStorage struct {
	recordingsDir string
}

// NewLocalStorage creates a local storage handler rooted at recordingsDir.
func NewLocalStorage(recordingsDir string) *LocalStorage {
	return &LocalStorage{recordingsDir: recordingsDir}
}

// RoomDir returns the per-room directory, creating it if needed.
func (ls *LocalStorage) RoomDir(roomID string) (string, error) {
	dir := filepath.Join(ls.recordingsDir, roomID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create room directory: %v", err)
	}
	return dir, nil
}

// SaveTranscript writes transcript.json and transcript.txt for the room
// and returns their paths.
func (ls *LocalStorage) SaveTranscript(tr *types.MergedTranscript) (txtPath, jsonPath string, err error) {
	dir, err := ls.RoomDir(tr.RoomID)
	if err != nil {
		return "", "", err
	}

	jsonPath = filepath.Join(dir, "transcript.json")
	txtPath = filepath.Join(dir, "transcript.txt")

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal transcript: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save transcript.json: %v", err)
	}

	if err := os.WriteFile(txtPath, []byte(RenderText(tr)), 0644); err != nil {
		return "", "", fmt.Errorf("failed to save transcript.txt: %v", err)
	}
	return txtPath, jsonPath, nil
}

// TranscriptPath returns the path of the rendered document for the given
// format ("text" or "json") and whether it exists yet.
func (ls *LocalStorage) TranscriptPath(roomID, format string) (string, bool) {
	name := "transcript.txt"
	if format == "json" {
		name = "transcript.json"
	}
	path := filepath.Join(ls.recordingsDir, roomID, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
