package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// FormatTranscript renders the transcript as plain text, one line per
// utterance, with speaker prefixes when present.
func FormatTranscript(m meeting.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", m.Title, m.Date.Format("2006-01-02 15:04"))
	for _, e := range m.Transcript {
		if e.Speaker != "" {
			fmt.Fprintf(&b, "%s: %s\n", e.Speaker, e.Text)
		} else {
			b.WriteString(e.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FormatNotes renders the meeting's insights as shareable notes.
func FormatNotes(m meeting.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - Meeting Notes\n%s\n", m.Title, m.Date.Format("2006-01-02 15:04"))

	items := m.Insights().Items()
	b.WriteString("\nKey Points:\n")
	writeItems(&b, items, meeting.Point)
	b.WriteString("\nAction Items:\n")
	writeItems(&b, items, meeting.Action)
	return b.String()
}

func writeItems(b *strings.Builder, items []meeting.KeyPoint, kind meeting.KeyPointType) {
	n := 0
	for _, it := range items {
		if it.Type != kind {
			continue
		}
		fmt.Fprintf(b, "  - %s\n", it.Text)
		n++
	}
	if n == 0 {
		b.WriteString("  (none)\n")
	}
}

// WriteFile saves content under the given filename.
func WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Share puts content on the system clipboard, the portable stand-in for an
// OS share sheet.
func Share(content string) error {
	if err := clipboard.WriteAll(content); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
