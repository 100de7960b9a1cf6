package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindscribe/mindscribe/internal/capture"
	"github.com/mindscribe/mindscribe/internal/meeting"
	"github.com/mindscribe/mindscribe/internal/summarize"
)

// State is the orchestrator's recording lifecycle.
type State string

const (
	NotStarted       State = "not_started"
	Recording        State = "recording"
	Stopped          State = "stopped" // recording off, analysis pending
	AnalysisComplete State = "analysis_complete"
)

// EventKind tags entries on the orchestrator's single event stream.
type EventKind int

const (
	// EventEntry carries one new transcript entry.
	EventEntry EventKind = iota
	// EventStatus carries a recording on/off flip.
	EventStatus
	// EventAnalysis carries the insights of a completed analysis pass.
	EventAnalysis
	// EventError carries a user-visible failure message.
	EventError
	// EventComplete fires exactly once per session, carrying the final
	// transcript for persistence.
	EventComplete
)

// Event is one tagged item on the orchestrator's event stream. The stream
// replaces separate onUpdate/onComplete/onError callback slots: consumers
// range over a single channel.
type Event struct {
	Kind       EventKind
	Entry      meeting.TranscriptEntry
	Recording  bool
	Insights   meeting.Insights
	Err        string
	Transcript []meeting.TranscriptEntry
}

const eventBuffer = 256

// Orchestrator owns the in-memory recording session. Adapters only feed
// channels; all session state is mutated here.
type Orchestrator struct {
	adapter    *capture.Adapter
	summarizer summarize.Adapter
	fallback   summarize.Adapter
	debounce   *summarize.Debounce

	events chan Event

	mu         sync.Mutex
	state      State
	transcript []meeting.TranscriptEntry
	insights   meeting.Insights
	lastErr    string
	startedAt  time.Time

	elapsedSec atomic.Int64

	cancel     context.CancelFunc
	analysisWG sync.WaitGroup
	runWG      sync.WaitGroup
}

// New wires the orchestrator. The fallback adapter (typically the mock) is
// consulted when the live summarizer fails outright, so the insights panel is
// never left empty by a service outage.
func New(adapter *capture.Adapter, summarizer, fallback summarize.Adapter, debounce *summarize.Debounce) *Orchestrator {
	return &Orchestrator{
		adapter:    adapter,
		summarizer: summarizer,
		fallback:   fallback,
		debounce:   debounce,
		events:     make(chan Event, eventBuffer),
		state:      NotStarted,
	}
}

// Events is the orchestrator's single consumable event stream.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Elapsed is the recording duration so far, ticked once per second.
func (o *Orchestrator) Elapsed() time.Duration {
	return time.Duration(o.elapsedSec.Load()) * time.Second
}

// SetSpeaker retags subsequent entries without interrupting capture.
func (o *Orchestrator) SetSpeaker(name string) {
	o.adapter.SetSpeaker(name)
}

// Snapshot returns a copy of the transcript accumulated so far.
func (o *Orchestrator) Snapshot() []meeting.TranscriptEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() []meeting.TranscriptEntry {
	snapshot := make([]meeting.TranscriptEntry, len(o.transcript))
	copy(snapshot, o.transcript)
	return snapshot
}

// LastError returns the latest user-visible failure message, if any.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Start begins a new recording session, resetting transcript, insights, and
// error state from any previous one.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state == Recording {
		o.mu.Unlock()
		return fmt.Errorf("already recording")
	}
	o.state = Recording
	o.transcript = nil
	o.insights = meeting.Insights{}
	o.lastErr = ""
	o.startedAt = time.Now()
	o.mu.Unlock()

	o.elapsedSec.Store(0)
	o.debounce.Reset()

	sessionCtx, cancel := context.WithCancel(ctx)
	entryCh, errCh, err := o.adapter.Start(sessionCtx)
	if err != nil {
		cancel()
		o.mu.Lock()
		o.state = NotStarted
		o.lastErr = err.Error()
		o.mu.Unlock()
		return err
	}
	o.cancel = cancel

	o.emit(Event{Kind: EventStatus, Recording: true})

	o.runWG.Add(1)
	go o.run(sessionCtx, entryCh, errCh)
	return nil
}

// Stop ends the recording. It is idempotent: timers halt, the capture engine
// is released, and the complete event fires exactly once. Any in-flight
// analysis keeps running, since it targets a snapshot captured before stop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.state != Recording {
		o.mu.Unlock()
		return
	}
	o.state = Stopped
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	_ = o.adapter.Stop()
	if cancel != nil {
		cancel()
	}
	o.adapter.Wait()
	o.runWG.Wait()

	final := o.Snapshot()
	o.emit(Event{Kind: EventStatus, Recording: false})
	o.emit(Event{Kind: EventComplete, Transcript: final})

	if len(final) == 0 {
		o.fail("The transcript is empty. No content to analyze.")
		o.mu.Lock()
		o.state = AnalysisComplete
		o.mu.Unlock()
		return
	}

	// Final pass over the full transcript. Runs detached from the session
	// context so stopping never cancels it.
	o.analysisWG.Add(1)
	go o.analyze(context.Background(), final, true)
}

// WaitAnalysis blocks until all pending analysis passes have resolved.
func (o *Orchestrator) WaitAnalysis() {
	o.analysisWG.Wait()
}

// Finalize folds the session into a Meeting for persistence. Valid after
// stop; insights may be empty when analysis failed, saving stays possible.
func (o *Orchestrator) Finalize(title string) meeting.Meeting {
	o.mu.Lock()
	defer o.mu.Unlock()

	m := meeting.New(title)
	m.Date = o.startedAt
	if o.startedAt.IsZero() {
		m.Date = m.CreatedAt
	}
	m.Duration = time.Duration(o.elapsedSec.Load()) * time.Second
	m.Transcript = o.snapshotLocked()
	m.KeyPoints = append([]string(nil), o.insights.KeyPoints...)
	m.ActionItems = append([]string(nil), o.insights.ActionItems...)
	return m
}

func (o *Orchestrator) run(ctx context.Context, entryCh <-chan meeting.TranscriptEntry, errCh <-chan error) {
	defer o.runWG.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.drainEntries(entryCh)
			return

		case <-ticker.C:
			o.elapsedSec.Add(1)

		case entry, ok := <-entryCh:
			if !ok {
				return
			}
			o.mu.Lock()
			o.transcript = append(o.transcript, entry)
			count := len(o.transcript)
			var snapshot []meeting.TranscriptEntry
			if o.debounce.Ready(count) {
				snapshot = o.snapshotLocked()
			}
			o.mu.Unlock()

			o.emit(Event{Kind: EventEntry, Entry: entry})

			if snapshot != nil {
				o.analysisWG.Add(1)
				go o.analyze(context.Background(), snapshot, false)
			}

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				o.fail(err.Error())
			}
		}
	}
}

// drainEntries collects entries the engine delivered before stop. The
// capture loop closes the channel once it exits, so the range terminates.
func (o *Orchestrator) drainEntries(entryCh <-chan meeting.TranscriptEntry) {
	for entry := range entryCh {
		o.mu.Lock()
		o.transcript = append(o.transcript, entry)
		o.mu.Unlock()
		o.emit(Event{Kind: EventEntry, Entry: entry})
	}
}

// analyze runs one summarization pass. A failed pass sets a user-visible
// error but never destroys the captured transcript, and the mock fallback
// keeps the insights panel populated.
func (o *Orchestrator) analyze(ctx context.Context, snapshot []meeting.TranscriptEntry, final bool) {
	defer o.analysisWG.Done()

	insights, err := o.summarizer.GenerateKeyPoints(ctx, snapshot)
	if err != nil {
		switch {
		case errors.Is(err, summarize.ErrUnauthorized):
			o.fail("Analysis unavailable: credentials are invalid or expired and need renewal.")
		default:
			o.fail("Failed to generate meeting insights: " + err.Error())
		}

		if o.fallback != nil {
			if fb, fbErr := o.fallback.GenerateKeyPoints(ctx, snapshot); fbErr == nil {
				insights = fb
			}
		}
	}

	o.applyInsights(insights, final)
}

// applyInsights records a pass's results. Latest snapshot wins wholesale;
// exact duplicate lines (case-insensitive) within a list are dropped.
func (o *Orchestrator) applyInsights(insights meeting.Insights, final bool) {
	insights.KeyPoints = dedupe(insights.KeyPoints)
	insights.ActionItems = dedupe(insights.ActionItems)

	o.mu.Lock()
	if !insights.Empty() {
		o.insights = insights
	}
	if final && o.state == Stopped {
		o.state = AnalysisComplete
	}
	stored := o.insights
	o.mu.Unlock()

	if !insights.Empty() || final {
		o.emit(Event{Kind: EventAnalysis, Insights: stored})
	}
}

func (o *Orchestrator) fail(msg string) {
	o.mu.Lock()
	o.lastErr = msg
	o.mu.Unlock()
	o.emit(Event{Kind: EventError, Err: msg})
}

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		log.Printf("session: event buffer full, dropping %v event", ev.Kind)
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := normalizeKey(it)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

func normalizeKey(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == ' ' || c == '\t' {
			continue
		}
		b = append(b, c)
	}
	return string(b)
}
