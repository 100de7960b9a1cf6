package summarize

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/meeting"
)

const transientBackoff = 500 * time.Millisecond

// chatClient is the slice of the OpenAI client the adapter needs; tests
// substitute their own.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdapter extracts insights through a chat completion endpoint, trying
// a prioritized list of models.
type OpenAIAdapter struct {
	client  chatClient
	cfg     config.SummarizerConfig
	backoff time.Duration
}

func NewOpenAIAdapter(cfg config.SummarizerConfig) *OpenAIAdapter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIAdapter{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		backoff: transientBackoff,
	}
}

// NewOpenAIAdapterWithClient is used by tests to inject a fake client.
func NewOpenAIAdapterWithClient(client chatClient, cfg config.SummarizerConfig) *OpenAIAdapter {
	return &OpenAIAdapter{client: client, cfg: cfg, backoff: time.Millisecond}
}

func (a *OpenAIAdapter) GenerateKeyPoints(ctx context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error) {
	if snapshotChars(snapshot) < minSnapshotChars {
		return meeting.Insights{}, nil
	}
	prompt := BuildUserPrompt(snapshot, a.cfg.WindowSize)

	var lastErr error
	for _, model := range a.cfg.Models {
		insights, err := a.tryModel(ctx, model, prompt)
		if err == nil {
			return insights, nil
		}
		lastErr = err

		switch Classify(err) {
		case Unauthorized:
			// Not retryable with another model: abort and surface distinctly.
			return meeting.Insights{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case Unavailable:
			log.Printf("summarize: model %s unavailable, trying next: %v", model, err)
		case Transient:
			log.Printf("summarize: model %s failed transiently: %v", model, err)
		}
	}

	return meeting.Insights{}, fmt.Errorf("all models failed: %w", lastErr)
}

// tryModel calls one model, retrying once after a backoff on a transient
// failure. Each attempt is bounded by the configured timeout so a hung call
// behaves exactly like a failed one.
func (a *OpenAIAdapter) tryModel(ctx context.Context, model, prompt string) (meeting.Insights, error) {
	for attempt := 0; ; attempt++ {
		insights, err := a.invoke(ctx, model, prompt)
		if err == nil {
			return insights, nil
		}
		if attempt > 0 || Classify(err) != Transient {
			return meeting.Insights{}, err
		}
		select {
		case <-ctx.Done():
			return meeting.Insights{}, err
		case <-time.After(a.backoff):
		}
	}
}

func (a *OpenAIAdapter) invoke(ctx context.Context, model, prompt string) (meeting.Insights, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(callCtx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("summarize: %s call failed after %v: %v", model, duration, err)
		return meeting.Insights{}, fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return meeting.Insights{}, fmt.Errorf("chat completion (%s): no response choices", model)
	}

	content := resp.Choices[0].Message.Content
	insights, err := ParseInsights(content)
	if err != nil {
		log.Printf("summarize: %s responded but extraction failed, using fallback payload", model)
		return FallbackInsights(), nil
	}

	log.Printf("summarize: %s extracted %d key points, %d action items in %v",
		model, len(insights.KeyPoints), len(insights.ActionItems), duration)
	return insights, nil
}
