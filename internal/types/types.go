package types

import "time"

// Speaker labels form a closed set. Unknown is provisional and must be
// resolved to one of the other two before the final render.
type Speaker string

const (
	SpeakerInterviewer Speaker = "Interviewer"
	SpeakerInterviewee Speaker = "Interviewee"
	SpeakerUnknown     Speaker = "Unknown"
)

// Role identifies a peer for the lifetime of a room. The interviewer
// creates the room; the interviewee joins it.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleInterviewee Role = "interviewee"
)

// Identity returns the fixed identity string embedded in recording
// credentials for this role.
func (r Role) Identity() string {
	if r == RoleInterviewee {
		return "Interviewee"
	}
	return "Interviewer"
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleInterviewer || r == RoleInterviewee
}

// Resolution tiers for artifact-to-speaker matching, ordered from most to
// least trustworthy.
const (
	ResolvedByParticipant = "participant"
	ResolvedByTrackName   = "trackname"
	ResolvedByOrdinal     = "ordinal"
)

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Artifact is one raw media file produced by a recording session for one
// participant track. Immutable once downloaded.
type Artifact struct {
	ID         string  `json:"id"`
	Codec      string  `json:"codec"`
	TrackName  string  `json:"track_name"`
	Size       int64   `json:"size"`
	Duration   float64 `json:"duration"`
	Speaker    Speaker `json:"speaker"`
	Resolution string  `json:"resolution"`
	LocalPath  string  `json:"local_path"`
	Err        string  `json:"error,omitempty"`
}

// Segment represents a timestamped span of recognized speech, offsets in
// seconds relative to the start of its own artifact.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the per-artifact recognition output. Failures are
// represented, not thrown away.
type TranscriptionResult struct {
	ArtifactID string    `json:"artifact_id"`
	Speaker    Speaker   `json:"speaker"`
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Duration   float64   `json:"duration"`
	Segments   []Segment `json:"segments"`
	Err        string    `json:"error,omitempty"`
}

// Failed reports whether recognition of this artifact failed.
func (r *TranscriptionResult) Failed() bool { return r.Err != "" }

// MergedSegment is a Segment tagged with its speaker and source artifact.
type MergedSegment struct {
	Segment
	Speaker    Speaker `json:"speaker"`
	ArtifactID string  `json:"artifact_id"`
}

// MergedTranscript is the canonical ordered output: segments across all
// artifacts sorted ascending by start offset, stable on ties.
type MergedTranscript struct {
	RoomID             string                 `json:"room_id"`
	ArtifactCount      int                    `json:"artifact_count"`
	Results            []*TranscriptionResult `json:"results"`
	Segments           []MergedSegment        `json:"merged_segments"`
	DiarizationApplied bool                   `json:"diarization_applied"`
	DiarizationMethod  string                 `json:"diarization_method"`
	GeneratedAt        time.Time              `json:"generated_at"`
	TimingNote         string                 `json:"timing_note"`
}

// TimingNote documents that segment offsets are relative to each artifact's
// own recording start, not to shared wall-clock time.
const TimingNote = "segment offsets are relative to each speaker's own track; " +
	"cross-track ordering is best-effort, not wall-clock aligned"
