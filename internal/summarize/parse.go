package summarize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// FallbackInsights is the fixed payload returned when every extraction
// strategy fails. It is data, never an error: the UI keeps rendering.
func FallbackInsights() meeting.Insights {
	return meeting.Insights{
		KeyPoints: []string{"Sorry, the meeting analysis could not be generated."},
	}
}

// insightsPayload accepts both string lists and {text,type} object lists for
// each field, since models routinely return either despite the prompt.
type insightsPayload struct {
	KeyPoints   []insightItem `json:"keyPoints"`
	ActionItems []insightItem `json:"actionItems"`
}

type insightItem struct {
	Text string
}

func (it *insightItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		it.Text = s
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	it.Text = obj.Text
	return nil
}

// ParseInsights extracts structured insights from a model response. Strategy
// chain: direct JSON parse, then a JSON object substring, then heuristic
// line-based extraction under "key points"/"action items" headings.
func ParseInsights(response string) (meeting.Insights, error) {
	if insights, err := parseJSON(response); err == nil {
		return insights, nil
	}

	if match := jsonObjectRe.FindString(response); match != "" {
		if insights, err := parseJSON(match); err == nil {
			return insights, nil
		}
	}

	if insights, ok := parseLines(response); ok {
		return insights, nil
	}

	return meeting.Insights{}, fmt.Errorf("no insights found in response")
}

func parseJSON(text string) (meeting.Insights, error) {
	var payload insightsPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return meeting.Insights{}, err
	}

	insights := meeting.Insights{
		KeyPoints:   itemTexts(payload.KeyPoints),
		ActionItems: itemTexts(payload.ActionItems),
	}
	if insights.Empty() {
		return meeting.Insights{}, fmt.Errorf("parsed JSON has no insights")
	}
	return insights, nil
}

func itemTexts(items []insightItem) []string {
	var out []string
	for _, it := range items {
		if t := strings.TrimSpace(it.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseLines scans free text for bullet lines under recognizable headings.
func parseLines(response string) (meeting.Insights, bool) {
	var insights meeting.Insights
	section := ""

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "key point"):
			section = "points"
			continue
		case strings.Contains(lower, "action item"):
			section = "actions"
			continue
		}

		text, ok := stripBullet(line)
		if !ok || section == "" {
			continue
		}
		switch section {
		case "points":
			insights.KeyPoints = append(insights.KeyPoints, text)
		case "actions":
			insights.ActionItems = append(insights.ActionItems, text)
		}
	}

	return insights, !insights.Empty()
}

func stripBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	// numbered bullets: "1. something"
	if i := strings.IndexByte(line, '.'); i > 0 && i < 4 {
		if _, err := fmt.Sscanf(line[:i], "%d", new(int)); err == nil {
			return strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", false
}
