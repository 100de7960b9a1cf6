package transcribe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// resultArtifact mirrors the JSON the transcription service deposits at the
// job's output location.
type resultArtifact struct {
	Status  string `json:"status"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []resultItem `json:"items,omitempty"`
	} `json:"results"`
}

type resultItem struct {
	Type         string `json:"type"` // "pronunciation" or "punctuation"
	SpeakerLabel string `json:"speaker_label,omitempty"`
	Alternatives []struct {
		Content string `json:"content"`
	} `json:"alternatives"`
}

// ParseResult converts a completed job's artifact into transcript entries.
// When speaker labels are present, consecutive same-speaker items are grouped
// into one entry per speaker turn; otherwise the whole transcript becomes a
// single untagged entry.
func ParseResult(data []byte) ([]meeting.TranscriptEntry, error) {
	var artifact resultArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	if entries := groupBySpeaker(artifact.Results.Items); len(entries) > 0 {
		return entries, nil
	}

	if len(artifact.Results.Transcripts) == 0 {
		return nil, fmt.Errorf("artifact contains no transcript")
	}
	text := strings.TrimSpace(artifact.Results.Transcripts[0].Transcript)
	if text == "" {
		return nil, nil
	}
	return []meeting.TranscriptEntry{{Text: text}}, nil
}

func groupBySpeaker(items []resultItem) []meeting.TranscriptEntry {
	var entries []meeting.TranscriptEntry
	var b strings.Builder
	speaker := ""

	flush := func() {
		text := strings.TrimSpace(b.String())
		if text != "" {
			entries = append(entries, meeting.TranscriptEntry{Text: text, Speaker: speaker})
		}
		b.Reset()
	}

	tagged := false
	for _, item := range items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content
		if item.SpeakerLabel != "" {
			tagged = true
		}

		if item.Type == "punctuation" {
			b.WriteString(content)
			continue
		}
		if item.SpeakerLabel != speaker && b.Len() > 0 {
			flush()
		}
		if item.SpeakerLabel != "" {
			speaker = item.SpeakerLabel
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(content)
	}
	flush()

	if !tagged {
		return nil // fall back to the flat transcript field
	}
	return entries
}
