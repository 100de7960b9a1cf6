package summarize

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mindscribe/mindscribe/internal/meeting"
)

// Adapter extracts key points and action items from a transcript snapshot.
type Adapter interface {
	GenerateKeyPoints(ctx context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error)
}

// ErrUnauthorized marks credential failures. Unlike a model-level rejection,
// these are not resolved by trying another model, so the fallback list is
// abandoned immediately and the user is told to renew credentials.
var ErrUnauthorized = errors.New("summarizer credentials invalid or expired")

// FailureKind classifies a model call failure for the fallback walk.
type FailureKind int

const (
	// Transient failures (timeouts, rate limits, 5xx) are retried once on the
	// same model after a short backoff.
	Transient FailureKind = iota
	// Unavailable means this model is rejected for the account or region; the
	// next candidate model is tried.
	Unavailable
	// Unauthorized aborts the whole list.
	Unauthorized
)

// Classify maps an API error onto the retry policy.
func Classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Unauthorized
		case http.StatusNotFound:
			return Unavailable
		}
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			return Unavailable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "security token"):
		return Unauthorized
	case strings.Contains(msg, "model not found"),
		strings.Contains(msg, "access denied for model"),
		strings.Contains(msg, "does not exist or you do not have access"):
		return Unavailable
	default:
		return Transient
	}
}
