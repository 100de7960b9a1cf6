package summarize

import (
	"fmt"
	"strings"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// minSnapshotChars skips analysis passes on snapshots too short to say
// anything useful about.
const minSnapshotChars = 50

const systemPrompt = `You are a meeting analysis assistant. You extract key points and action items from meeting transcripts.

Rules:
- A key point is a summarized insight, not a verbatim quote
- An action item is a task or follow-up someone should do
- Do not invent content that is not in the transcript
- Respond with ONLY a JSON object, nothing else`

// snapshotChars measures the spoken content only, excluding speaker labels.
func snapshotChars(snapshot []meeting.TranscriptEntry) int {
	n := 0
	for _, e := range snapshot {
		n += len(e.Text)
	}
	return n
}

// BuildUserPrompt embeds a bounded recent window of the transcript to keep
// token cost flat as the meeting grows.
func BuildUserPrompt(snapshot []meeting.TranscriptEntry, window int) string {
	if window > 0 && len(snapshot) > window {
		snapshot = snapshot[len(snapshot)-window:]
	}

	var b strings.Builder
	for _, e := range snapshot {
		if e.Speaker != "" {
			fmt.Fprintf(&b, "%s: %s\n", e.Speaker, e.Text)
		} else {
			b.WriteString(e.Text)
			b.WriteByte('\n')
		}
	}

	return fmt.Sprintf(`The following is a meeting transcript. Extract key points and action items:

Transcript:
%s
Return your response in this exact JSON format:
{
  "keyPoints": ["First key point", "Second key point"],
  "actionItems": ["First action item", "Second action item"]
}`, b.String())
}
