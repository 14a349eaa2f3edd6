package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MetadataDB indexes produced transcripts in SQLite, one row per room.
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed initializes) the transcript index.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		artifact_count INTEGER NOT NULL,
		duration REAL,
		diarization_method TEXT,
		txt_path TEXT NOT NULL,
		json_path TEXT NOT NULL,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript records a produced transcript. Re-running the pipeline
// for a room replaces its row.
func (mdb *MetadataDB) SaveTranscript(
	roomID, sessionID string, artifactCount int,
	duration float64, diarizationMethod, txtPath, jsonPath, gdriveURL string,
) error {
	query := `
	INSERT OR REPLACE INTO transcripts
	(room_id, session_id, artifact_count, duration, diarization_method, txt_path, json_path, gdrive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := mdb.db.Exec(query, roomID, sessionID, artifactCount, duration,
		diarizationMethod, txtPath, jsonPath, gdriveURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %v", err)
	}
	return nil
}

// GetTranscript retrieves transcript metadata by room id.
func (mdb *MetadataDB) GetTranscript(roomID string) (map[string]interface{}, error) {
	query := `
	SELECT room_id, session_id, artifact_count, duration, diarization_method, txt_path, json_path, gdrive_url, created_at
	FROM transcripts WHERE room_id = ?
	`
	row := mdb.db.QueryRow(query, roomID)

	var (
		rid, sid, method, txt, js, gdrive string
		artifactCount                     int
		duration                          float64
		createdAt                         time.Time
	)
	if err := row.Scan(&rid, &sid, &artifactCount, &duration, &method, &txt, &js, &gdrive, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to get transcript: %v", err)
	}

	return map[string]interface{}{
		"room_id":            rid,
		"session_id":         sid,
		"artifact_count":     artifactCount,
		"duration":           duration,
		"diarization_method": method,
		"txt_path":           txt,
		"json_path":          js,
		"gdrive_url":         gdrive,
		"created_at":         createdAt,
	}, nil
}

// ListTranscripts returns the most recent transcripts.
func (mdb *MetadataDB) ListTranscripts(limit int) ([]map[string]interface{}, error) {
	query := `
	SELECT room_id, session_id, artifact_count, duration, diarization_method, txt_path, json_path, gdrive_url, created_at
	FROM transcripts ORDER BY created_at DESC LIMIT ?
	`
	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %v", err)
	}
	defer rows.Close()

	var transcripts []map[string]interface{}
	for rows.Next() {
		var (
			rid, sid, method, txt, js, gdrive string
			artifactCount                     int
			duration                          float64
			createdAt                         time.Time
		)
		if err := rows.Scan(&rid, &sid, &artifactCount, &duration, &method, &txt, &js, &gdrive, &createdAt); err != nil {
			continue
		}
		transcripts = append(transcripts, map[string]interface{}{
			"room_id":            rid,
			"session_id":         sid,
			"artifact_count":     artifactCount,
			"duration":           duration,
			"diarization_method": method,
			"txt_path":           txt,
			"json_path":          js,
			"gdrive_url":         gdrive,
			"created_at":         createdAt,
		})
	}
	return transcripts, nil
}

// Close closes the database connection.
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
