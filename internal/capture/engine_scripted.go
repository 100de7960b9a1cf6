package capture

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultScript is the canned meeting used whenever live capture and cloud
// transcription are unavailable, so the transcript view always has content.
var DefaultScript = []string{
	"Hello everyone, thank you for joining today's meeting.",
	"Let's start by discussing the current project status.",
	"We've made good progress on the first milestone.",
	"I think we should prioritize the user interface improvements.",
	"Does anyone have questions about the timeline?",
	"We should allocate more resources to testing before the next release.",
	"Let's make sure we address all the feedback from the last user testing session.",
}

// ScriptedEngine emits a fixed script of utterances on a steady cadence while
// recording, then stays silent until stopped. It is the graceful-degradation
// path, not a rate limiter: callers that need throttling use an explicit
// debounce policy.
type ScriptedEngine struct {
	script   []string
	interval time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScriptedEngine(script []string, interval time.Duration) *ScriptedEngine {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ScriptedEngine{script: script, interval: interval}
}

func (e *ScriptedEngine) Name() string { return "scripted" }

func (e *ScriptedEngine) Start(ctx context.Context) (<-chan Result, <-chan error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil, nil, fmt.Errorf("engine already started")
	}

	engineCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.started = true

	resultCh := make(chan Result, len(e.script))
	errCh := make(chan error, 1)

	e.wg.Add(1)
	go e.run(engineCtx, resultCh, errCh)

	return resultCh, errCh, nil
}

func (e *ScriptedEngine) run(ctx context.Context, resultCh chan<- Result, errCh chan<- error) {
	defer func() {
		close(errCh)
		e.wg.Done()
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for _, line := range e.script {
		select {
		case <-ctx.Done():
			close(resultCh)
			return
		case <-ticker.C:
		}

		select {
		case resultCh <- Result{Text: line}:
		case <-ctx.Done():
			close(resultCh)
			return
		}
	}

	// Script exhausted. Keep the channel open so the adapter does not treat
	// exhaustion as a transient termination and restart the script.
	<-ctx.Done()
	close(resultCh)
}

func (e *ScriptedEngine) Stop() error {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	started := e.started
	e.mu.Unlock()

	if !started {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	e.mu.Lock()
	e.started = false
	e.mu.Unlock()
	return nil
}
