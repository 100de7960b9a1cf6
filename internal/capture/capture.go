package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/meeting"
)

// ErrPermissionDenied means the recognition engine refused access (microphone
// or account permission). The session cannot proceed with live capture and the
// mock path is NOT substituted automatically: the user has to fix permissions.
var ErrPermissionDenied = errors.New("speech recognition permission denied")

// PermissionMessage is the transcript line shown in place of live capture
// when the engine denies access.
const PermissionMessage = "Error: Microphone access denied. Please check your permissions."

// Result is one finalized utterance from a recognition engine.
type Result struct {
	Text string
}

// Engine is a continuous speech recognizer. Start delivers finalized
// utterances on the result channel until the engine terminates; the channel
// closing while the caller is still recording signals a transient termination
// (e.g. a silence timeout) that the adapter recovers from by restarting.
type Engine interface {
	Name() string
	Start(ctx context.Context) (<-chan Result, <-chan error, error)
	Stop() error
}

// restart throttling for transient engine terminations
const (
	maxRestarts  = 5
	restartDelay = 250 * time.Millisecond
)

// Adapter wraps an Engine and emits speaker-tagged transcript entries. It
// never mutates shared session state: the orchestrator consumes its channels.
type Adapter struct {
	engine  Engine
	bufSize int

	speakerMu sync.RWMutex
	speaker   string

	recording atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an adapter around the engine selected by the capture config.
func New(engine Engine, cfg config.CaptureConfig) *Adapter {
	bufSize := cfg.ChannelBufferSize
	if bufSize <= 0 {
		bufSize = 30
	}
	return &Adapter{engine: engine, bufSize: bufSize}
}

// NewEngine constructs the configured engine implementation.
func NewEngine(cfg config.CaptureConfig) (Engine, error) {
	switch cfg.Engine {
	case "websocket":
		return NewWebsocketEngine(cfg), nil
	case "scripted":
		return NewScriptedEngine(DefaultScript, cfg.ScriptInterval), nil
	default:
		return nil, fmt.Errorf("unsupported capture engine: %s", cfg.Engine)
	}
}

// SetSpeaker changes the label applied to subsequent entries without
// restarting capture.
func (a *Adapter) SetSpeaker(name string) {
	a.speakerMu.Lock()
	a.speaker = name
	a.speakerMu.Unlock()
}

func (a *Adapter) currentSpeaker() string {
	a.speakerMu.RLock()
	defer a.speakerMu.RUnlock()
	return a.speaker
}

func (a *Adapter) IsRecording() bool {
	return a.recording.Load()
}

// Start begins continuous recognition. Entries arrive in engine firing order.
func (a *Adapter) Start(ctx context.Context) (<-chan meeting.TranscriptEntry, <-chan error, error) {
	if a.recording.Load() {
		return nil, nil, fmt.Errorf("already recording")
	}

	captureCtx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	entryCh := make(chan meeting.TranscriptEntry, a.bufSize)
	errCh := make(chan error, 1)

	a.recording.Store(true)
	a.wg.Add(1)
	go a.captureLoop(captureCtx, entryCh, errCh)

	return entryCh, errCh, nil
}

// Stop halts recognition and releases the engine. Safe to call twice.
func (a *Adapter) Stop() error {
	if !a.recording.Load() {
		return nil
	}

	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Wait blocks until the capture loop has exited.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) captureLoop(ctx context.Context, entryCh chan<- meeting.TranscriptEntry, errCh chan<- error) {
	defer func() {
		_ = a.engine.Stop()
		close(entryCh)
		close(errCh)
		a.recording.Store(false)
		a.wg.Done()
	}()

	restarts := 0
	for {
		resultCh, engineErrCh, err := a.engine.Start(ctx)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				// Reported inline as an error transcript line, same channel
				// as regular entries.
				a.emit(ctx, entryCh, meeting.TranscriptEntry{Text: PermissionMessage})
				a.emitErr(errCh, err)
				return
			}
			a.emitErr(errCh, fmt.Errorf("start %s engine: %w", a.engine.Name(), err))
			return
		}
		started := time.Now()

		ended := a.consume(ctx, resultCh, engineErrCh, entryCh, errCh)
		if !ended {
			return // cancelled or fatal
		}

		// Engine terminated while still recording (silence timeout or
		// connection drop): restart and keep capturing. A long healthy run
		// clears the restart budget so a stable session never exhausts it.
		if time.Since(started) > time.Minute {
			restarts = 0
		}
		restarts++
		if restarts > maxRestarts {
			a.emitErr(errCh, fmt.Errorf("%s engine terminated %d times, giving up", a.engine.Name(), restarts))
			return
		}
		log.Printf("capture: %s engine ended while recording, restarting (%d/%d)", a.engine.Name(), restarts, maxRestarts)

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// consume forwards engine results until the engine ends. Returns true when the
// engine terminated on its own and a restart should be attempted.
func (a *Adapter) consume(ctx context.Context, resultCh <-chan Result, engineErrCh <-chan error, entryCh chan<- meeting.TranscriptEntry, errCh chan<- error) bool {
	for {
		select {
		case <-ctx.Done():
			a.flush(resultCh, entryCh)
			return false

		case res, ok := <-resultCh:
			if !ok {
				return true
			}
			if res.Text == "" {
				continue // never commit an empty entry
			}
			entry := meeting.TranscriptEntry{Text: res.Text, Speaker: a.currentSpeaker()}
			if !a.emit(ctx, entryCh, entry) {
				return false
			}

		case err, ok := <-engineErrCh:
			if !ok {
				engineErrCh = nil
				continue
			}
			if err != nil {
				a.emitErr(errCh, err)
			}
		}
	}
}

// flush forwards results the engine delivered before the stop reached us,
// so utterances recognized during shutdown still make the transcript.
// Non-blocking on both sides so teardown never stalls.
func (a *Adapter) flush(resultCh <-chan Result, entryCh chan<- meeting.TranscriptEntry) {
	for {
		select {
		case res, ok := <-resultCh:
			if !ok {
				return
			}
			if res.Text == "" {
				continue
			}
			select {
			case entryCh <- meeting.TranscriptEntry{Text: res.Text, Speaker: a.currentSpeaker()}:
			default:
				return
			}
		default:
			return
		}
	}
}

func (a *Adapter) emit(ctx context.Context, entryCh chan<- meeting.TranscriptEntry, entry meeting.TranscriptEntry) bool {
	select {
	case entryCh <- entry:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Adapter) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// best effort, never block capture on a slow consumer
	}
	log.Printf("capture: %v", err)
}
