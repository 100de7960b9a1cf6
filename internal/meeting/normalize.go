package meeting

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stored meeting records come in two dialects: the remote store writes
// snake_case fields with speaker-tagged transcript entries, while older local
// records use camelCase and sometimes plain string transcripts. Everything is
// normalized into Meeting at the read boundary so the rest of the code never
// type-checks shapes.

type rawMeeting struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	UserIDSnake string          `json:"user_id"`
	Title       string          `json:"title"`
	Date        string          `json:"date"`
	Duration    int64           `json:"duration"`
	Transcript  json.RawMessage `json:"transcript"`
	KeyPoints   []string        `json:"keyPoints"`
	KeyPtSnake  []string        `json:"key_points"`
	ActionItems []string        `json:"actionItems"`
	ActSnake    []string        `json:"action_items"`
	CreatedAt   string          `json:"createdAt"`
	CreatedSnk  string          `json:"created_at"`
}

// DecodeMeeting parses a stored meeting record in either dialect.
func DecodeMeeting(data []byte) (Meeting, error) {
	var raw rawMeeting
	if err := json.Unmarshal(data, &raw); err != nil {
		return Meeting{}, fmt.Errorf("decode meeting: %w", err)
	}

	m := Meeting{
		ID:          raw.ID,
		UserID:      pick(raw.UserID, raw.UserIDSnake),
		Title:       raw.Title,
		Duration:    time.Duration(raw.Duration) * time.Second,
		KeyPoints:   pickSlice(raw.KeyPoints, raw.KeyPtSnake),
		ActionItems: pickSlice(raw.ActionItems, raw.ActSnake),
	}

	if raw.Date != "" {
		t, err := parseTime(raw.Date)
		if err != nil {
			return Meeting{}, fmt.Errorf("decode meeting date: %w", err)
		}
		m.Date = t
	}
	if created := pick(raw.CreatedAt, raw.CreatedSnk); created != "" {
		t, err := parseTime(created)
		if err != nil {
			return Meeting{}, fmt.Errorf("decode meeting created_at: %w", err)
		}
		m.CreatedAt = t
	}

	transcript, err := DecodeTranscript(raw.Transcript)
	if err != nil {
		return Meeting{}, err
	}
	m.Transcript = transcript
	return m, nil
}

// DecodeTranscript accepts either ["line", ...] or [{"text": ..., "speaker": ...}, ...].
// Empty lines are dropped rather than committed.
func DecodeTranscript(data []byte) ([]TranscriptEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var tagged []TranscriptEntry
	if err := json.Unmarshal(data, &tagged); err == nil {
		return compact(tagged), nil
	}

	var plain []string
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("decode transcript: unrecognized shape")
	}
	entries := make([]TranscriptEntry, 0, len(plain))
	for _, text := range plain {
		entries = append(entries, TranscriptEntry{Text: text})
	}
	return compact(entries), nil
}

func compact(entries []TranscriptEntry) []TranscriptEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Text != "" {
			out = append(out, e)
		}
	}
	return out
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func pickSlice(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}
