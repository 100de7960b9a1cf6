package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

func sampleMeeting() meeting.Meeting {
	return meeting.Meeting{
		ID:    "m-1",
		Title: "Planning",
		Date:  time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC),
		Transcript: []meeting.TranscriptEntry{
			{Text: "Hello team.", Speaker: "You"},
			{Text: "Recorded announcement."},
		},
		KeyPoints:   []string{"Scope agreed"},
		ActionItems: []string{"Write the proposal"},
	}
}

func TestFormatTranscript(t *testing.T) {
	out := FormatTranscript(sampleMeeting())

	if !strings.HasPrefix(out, "Planning\n2026-02-10 14:00\n") {
		t.Errorf("header wrong:\n%s", out)
	}
	if !strings.Contains(out, "You: Hello team.\n") {
		t.Error("speaker-tagged line missing prefix")
	}
	if !strings.Contains(out, "\nRecorded announcement.\n") {
		t.Error("untagged line should have no prefix")
	}
}

func TestFormatNotes(t *testing.T) {
	out := FormatNotes(sampleMeeting())

	if !strings.Contains(out, "Key Points:\n  - Scope agreed") {
		t.Errorf("key points missing:\n%s", out)
	}
	if !strings.Contains(out, "Action Items:\n  - Write the proposal") {
		t.Errorf("action items missing:\n%s", out)
	}
}

func TestFormatNotes_EmptyInsights(t *testing.T) {
	m := sampleMeeting()
	m.KeyPoints = nil
	m.ActionItems = nil

	out := FormatNotes(m)
	if strings.Count(out, "(none)") != 2 {
		t.Errorf("empty sections not marked:\n%s", out)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := WriteFile(path, "content"); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("file content = %q", data)
	}
}
