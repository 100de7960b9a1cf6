package session_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mindscribe/mindscribe/internal/capture"
	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/meeting"
	"github.com/mindscribe/mindscribe/internal/session"
	"github.com/mindscribe/mindscribe/internal/summarize"
	"github.com/mindscribe/mindscribe/internal/testutil"
)

func newTestOrchestrator(engine capture.Engine, summarizer summarize.Adapter) *session.Orchestrator {
	adapter := capture.New(engine, config.CaptureConfig{ChannelBufferSize: 30})
	if summarizer == nil {
		summarizer = &testutil.MockSummarizer{}
	}
	fallback := summarize.NewMockAdapter(1)
	debounce := summarize.NewDebounce(100, time.Hour) // effectively off unless a test lowers it
	return session.New(adapter, summarizer, fallback, debounce)
}

func drainUntil(t *testing.T, events <-chan session.Event, kind session.EventKind, timeout time.Duration) session.Event {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %v event within %v", kind, timeout)
		}
	}
}

func TestOrchestrator_RecordStopAnalyze(t *testing.T) {
	engine := testutil.NewMockEngine("Hello team.", "Let's begin.")
	summarizer := &testutil.MockSummarizer{
		GenerateFunc: func(_ context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error) {
			return meeting.Insights{
				KeyPoints:   []string{"Team greeted and meeting opened."},
				ActionItems: []string{"Circulate the agenda."},
			}, nil
		},
	}
	orch := newTestOrchestrator(engine, summarizer)
	orch.SetSpeaker("You")

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if orch.State() != session.Recording {
		t.Errorf("State() = %v, want Recording", orch.State())
	}

	drainUntil(t, orch.Events(), session.EventEntry, 2*time.Second)

	testutil.WaitForCondition(t, func() bool {
		return len(orch.Snapshot()) == 2
	}, 2*time.Second)

	orch.Stop()

	complete := drainUntil(t, orch.Events(), session.EventComplete, 2*time.Second)
	if len(complete.Transcript) != 2 {
		t.Fatalf("complete transcript has %d entries, want 2", len(complete.Transcript))
	}
	if complete.Transcript[0].Text != "Hello team." || complete.Transcript[1].Text != "Let's begin." {
		t.Errorf("transcript out of order: %+v", complete.Transcript)
	}
	if complete.Transcript[0].Speaker != "You" {
		t.Errorf("Speaker = %q, want %q", complete.Transcript[0].Speaker, "You")
	}

	orch.WaitAnalysis()

	if orch.State() != session.AnalysisComplete {
		t.Errorf("State() = %v, want AnalysisComplete", orch.State())
	}

	m := orch.Finalize("Standup")
	if m.Title != "Standup" {
		t.Errorf("Title = %q, want Standup", m.Title)
	}
	if len(m.Transcript) != 2 {
		t.Errorf("meeting transcript has %d entries, want 2", len(m.Transcript))
	}
	if len(m.KeyPoints) != 1 || m.KeyPoints[0] != "Team greeted and meeting opened." {
		t.Errorf("KeyPoints = %v", m.KeyPoints)
	}
	if len(m.ActionItems) != 1 {
		t.Errorf("ActionItems = %v", m.ActionItems)
	}
}

func TestOrchestrator_StopKeepsBufferedEntries(t *testing.T) {
	// The engine hands over all its results at once; stopping right after
	// start must still land every one of them in the final transcript.
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("utterance %d", i)
	}
	engine := testutil.NewMockEngine(texts...)
	orch := newTestOrchestrator(engine, nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	orch.Stop()

	complete := drainUntil(t, orch.Events(), session.EventComplete, 2*time.Second)
	if len(complete.Transcript) != len(texts) {
		t.Fatalf("complete transcript has %d entries, want %d", len(complete.Transcript), len(texts))
	}
	for i, e := range complete.Transcript {
		if e.Text != texts[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Text, texts[i])
		}
	}
	orch.WaitAnalysis()
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	engine := testutil.NewMockEngine("something")
	orch := newTestOrchestrator(engine, nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	testutil.WaitForCondition(t, func() bool {
		return len(orch.Snapshot()) == 1
	}, 2*time.Second)

	orch.Stop()
	orch.Stop()
	orch.Stop()
	orch.WaitAnalysis()

	completes := 0
	for {
		select {
		case ev := <-orch.Events():
			if ev.Kind == session.EventComplete {
				completes++
			}
		case <-time.After(100 * time.Millisecond):
			if completes != 1 {
				t.Errorf("received %d complete events, want 1", completes)
			}
			return
		}
	}
}

func TestOrchestrator_EmptyTranscript(t *testing.T) {
	engine := testutil.NewMockEngine()
	orch := newTestOrchestrator(engine, nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	orch.Stop()

	errEv := drainUntil(t, orch.Events(), session.EventError, 2*time.Second)
	if !strings.Contains(errEv.Err, "empty") {
		t.Errorf("error = %q, want mention of empty transcript", errEv.Err)
	}
	if orch.State() != session.AnalysisComplete {
		t.Errorf("State() = %v, want AnalysisComplete", orch.State())
	}

	// Saving must still be possible with no insights.
	m := orch.Finalize("Empty")
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if len(m.KeyPoints) != 0 {
		t.Errorf("KeyPoints = %v, want none", m.KeyPoints)
	}
}

func TestOrchestrator_SummarizerFailureFallsBack(t *testing.T) {
	engine := testutil.NewMockEngine("a point", "another point", "third point")
	summarizer := &testutil.MockSummarizer{
		GenerateFunc: func(_ context.Context, _ []meeting.TranscriptEntry) (meeting.Insights, error) {
			return meeting.Insights{}, fmt.Errorf("service unavailable")
		},
	}
	orch := newTestOrchestrator(engine, summarizer)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	testutil.WaitForCondition(t, func() bool {
		return len(orch.Snapshot()) == 3
	}, 2*time.Second)

	orch.Stop()
	orch.WaitAnalysis()

	if orch.LastError() == "" {
		t.Error("LastError() empty, want failure message")
	}

	// Mock fallback keeps the insights panel populated.
	analysis := drainUntil(t, orch.Events(), session.EventAnalysis, 2*time.Second)
	if analysis.Insights.Empty() {
		t.Error("fallback insights are empty")
	}
}

func TestOrchestrator_UnauthorizedMessage(t *testing.T) {
	engine := testutil.NewMockEngine("line")
	summarizer := &testutil.MockSummarizer{
		GenerateFunc: func(_ context.Context, _ []meeting.TranscriptEntry) (meeting.Insights, error) {
			return meeting.Insights{}, fmt.Errorf("calling model: %w", summarize.ErrUnauthorized)
		},
	}
	orch := newTestOrchestrator(engine, summarizer)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	testutil.WaitForCondition(t, func() bool {
		return len(orch.Snapshot()) == 1
	}, 2*time.Second)

	orch.Stop()
	orch.WaitAnalysis()

	if !strings.Contains(orch.LastError(), "renewal") {
		t.Errorf("LastError() = %q, want credential renewal message", orch.LastError())
	}
}

func TestOrchestrator_DebounceTriggersInterimAnalysis(t *testing.T) {
	engine := testutil.NewMockEngine("one", "two", "three")
	summarizer := &testutil.MockSummarizer{}

	adapter := capture.New(engine, config.CaptureConfig{ChannelBufferSize: 30})
	debounce := summarize.NewDebounce(2, time.Hour)
	orch := session.New(adapter, summarizer, summarize.NewMockAdapter(1), debounce)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// An interim pass fires from entry accumulation alone, before stop.
	testutil.WaitForCondition(t, func() bool {
		return len(summarizer.Calls()) >= 1
	}, 2*time.Second)

	orch.Stop()
	orch.WaitAnalysis()

	calls := summarizer.Calls()
	if len(calls) < 2 {
		t.Fatalf("summarizer called %d times, want interim plus final", len(calls))
	}
	final := calls[len(calls)-1]
	if len(final) != 3 {
		t.Errorf("final snapshot has %d entries, want 3", len(final))
	}
}

func TestOrchestrator_StartResetsPreviousSession(t *testing.T) {
	engine := testutil.NewMockEngine("first session line")
	orch := newTestOrchestrator(engine, nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	testutil.WaitForCondition(t, func() bool {
		return len(orch.Snapshot()) == 1
	}, 2*time.Second)
	orch.Stop()
	orch.WaitAnalysis()

	engine.Results = []capture.Result{{Text: "second session line"}}
	if err := orch.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer orch.Stop()

	testutil.WaitForCondition(t, func() bool {
		snap := orch.Snapshot()
		return len(snap) == 1 && snap[0].Text == "second session line"
	}, 2*time.Second)

	if orch.LastError() != "" {
		t.Errorf("LastError() = %q, want cleared", orch.LastError())
	}
	if orch.State() != session.Recording {
		t.Errorf("State() = %v, want Recording", orch.State())
	}
}

func TestOrchestrator_StartWhileRecordingFails(t *testing.T) {
	engine := testutil.NewMockEngine("x")
	orch := newTestOrchestrator(engine, nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer orch.Stop()

	if err := orch.Start(ctx); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}
