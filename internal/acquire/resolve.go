package acquire

import (
	"log"
	"strings"

	"github.com/jimsandwick99/videocall/internal/provider"
	"github.com/jimsandwick99/videocall/internal/types"
)

// resolveSpeakers turns raw artifact listings into labeled artifacts via
// an ordered fallback chain: participant-reference match, then track-name
// keyword, then ordinal position. The tier that resolved each artifact is
// recorded so the heuristic ones can be flagged downstream.
func resolveSpeakers(infos []provider.ArtifactInfo, participants []provider.Participant) []types.Artifact {
	byID := make(map[string]provider.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	artifacts := make([]types.Artifact, len(infos))
	for i, info := range infos {
		a := types.Artifact{
			ID:        info.ID,
			Codec:     info.Codec,
			TrackName: info.TrackName,
			Size:      info.Size,
			Duration:  info.Duration,
			Speaker:   types.SpeakerUnknown,
		}

		if p, ok := byID[info.ParticipantID]; ok {
			if sp := speakerFromIdentity(p.Identity); sp != types.SpeakerUnknown {
				a.Speaker = sp
				a.Resolution = types.ResolvedByParticipant
			}
		}
		if a.Speaker == types.SpeakerUnknown {
			if sp := speakerFromKeyword(info.TrackName); sp != types.SpeakerUnknown {
				a.Speaker = sp
				a.Resolution = types.ResolvedByTrackName
				log.Printf("Artifact %s: speaker %s inferred from track name %q", info.ID, sp, info.TrackName)
			}
		}
		artifacts[i] = a
	}

	// Last resort: first unresolved artifact is the interviewer, the rest
	// are the interviewee. Loud on purpose, this is a guess.
	ordinal := 0
	for i := range artifacts {
		if artifacts[i].Speaker != types.SpeakerUnknown {
			continue
		}
		if ordinal == 0 {
			artifacts[i].Speaker = types.SpeakerInterviewer
		} else {
			artifacts[i].Speaker = types.SpeakerInterviewee
		}
		artifacts[i].Resolution = types.ResolvedByOrdinal
		log.Printf("WARNING: artifact %s speaker unresolved, assigned %s by ordinal position",
			artifacts[i].ID, artifacts[i].Speaker)
		ordinal++
	}
	return artifacts
}

func speakerFromIdentity(identity string) types.Speaker {
	return speakerFromKeyword(identity)
}

// speakerFromKeyword pattern-matches a speaker keyword embedded in a
// loosely structured provider field.
func speakerFromKeyword(s string) types.Speaker {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "interviewee"):
		return types.SpeakerInterviewee
	case strings.Contains(lower, "interviewer"):
		return types.SpeakerInterviewer
	}
	return types.SpeakerUnknown
}
