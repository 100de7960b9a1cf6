package meeting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptEntry is one captured utterance, optionally attributed to a speaker.
type TranscriptEntry struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

// KeyPointType distinguishes summarized insights from follow-up tasks.
type KeyPointType string

const (
	Point  KeyPointType = "point"
	Action KeyPointType = "action"
)

// KeyPoint is a single extracted insight.
type KeyPoint struct {
	Text string       `json:"text"`
	Type KeyPointType `json:"type"`
}

// Insights is the result of one summarization pass over a transcript snapshot.
type Insights struct {
	KeyPoints   []string `json:"keyPoints"`
	ActionItems []string `json:"actionItems"`
}

// Empty reports whether the pass produced nothing.
func (i Insights) Empty() bool {
	return len(i.KeyPoints) == 0 && len(i.ActionItems) == 0
}

// Items flattens the insights into typed entries, points before actions.
func (i Insights) Items() []KeyPoint {
	items := make([]KeyPoint, 0, len(i.KeyPoints)+len(i.ActionItems))
	for _, p := range i.KeyPoints {
		items = append(items, KeyPoint{Text: p, Type: Point})
	}
	for _, a := range i.ActionItems {
		items = append(items, KeyPoint{Text: a, Type: Action})
	}
	return items
}

// Meeting is a saved recording session. Immutable once persisted.
type Meeting struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId,omitempty"`
	Title       string            `json:"title"`
	Date        time.Time         `json:"date"`
	Duration    time.Duration     `json:"duration,omitempty"`
	Transcript  []TranscriptEntry `json:"transcript"`
	KeyPoints   []string          `json:"keyPoints"`
	ActionItems []string          `json:"actionItems"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Insights returns the saved analysis as a single value.
func (m Meeting) Insights() Insights {
	return Insights{KeyPoints: m.KeyPoints, ActionItems: m.ActionItems}
}

// MarshalJSON writes the duration in whole seconds, the unit stored records
// use.
func (m Meeting) MarshalJSON() ([]byte, error) {
	type alias Meeting
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration,omitempty"`
	}{alias(m), int64(m.Duration.Seconds())})
}

// New creates a meeting with a fresh id and creation timestamp.
func New(title string) Meeting {
	now := time.Now().UTC()
	return Meeting{
		ID:        uuid.NewString(),
		Title:     title,
		Date:      now,
		CreatedAt: now,
	}
}

// Validate checks the invariants a meeting must satisfy before persistence.
func (m Meeting) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("meeting has no id")
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("meeting has no title")
	}
	for i, e := range m.Transcript {
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("transcript entry %d is empty", i)
		}
	}
	return nil
}
