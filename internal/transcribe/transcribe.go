package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mindscribe/mindscribe/internal/capture"
	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/meeting"
)

// Status is the batch transcription state machine.
type Status string

const (
	Idle         Status = "idle"
	Recording    Status = "recording"
	Uploading    Status = "uploading"
	JobSubmitted Status = "job_submitted"
	Polling      Status = "polling"
	Completed    Status = "completed"
	Failed       Status = "failed"
)

// ErrNotConfigured means region, bucket, or credentials are missing. Callers
// fall back to the scripted capture engine instead of hanging.
var ErrNotConfigured = errors.New("cloud transcription not configured")

// MockTranscript is the canned transcript callers render when the cloud job
// is unconfigured or fails, the same script the scripted capture engine
// plays.
func MockTranscript() []meeting.TranscriptEntry {
	entries := make([]meeting.TranscriptEntry, 0, len(capture.DefaultScript))
	for _, line := range capture.DefaultScript {
		entries = append(entries, meeting.TranscriptEntry{Text: line})
	}
	return entries
}

// ObjectStore stages recorded audio before transcription.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (uri string, err error)
}

// JobState is the remote job's lifecycle state.
type JobState string

const (
	JobInProgress JobState = "IN_PROGRESS"
	JobCompleted  JobState = "COMPLETED"
	JobFailed     JobState = "FAILED"
)

// JobStatus is one status poll response.
type JobStatus struct {
	State         JobState
	FailureReason string
}

// JobClient talks to the asynchronous transcription service.
type JobClient interface {
	StartJob(ctx context.Context, name, sourceURI, languageCode, outputKey string) error
	GetJobStatus(ctx context.Context, name string) (JobStatus, error)
	FetchResult(ctx context.Context, name string) ([]byte, error)
}

// Preflight validates the cloud configuration before any network call.
func Preflight(cfg *config.Config) error {
	if !cfg.CloudConfigured() {
		return fmt.Errorf("%w: set cloud.region, cloud.bucket, and credentials", ErrNotConfigured)
	}
	return nil
}

// Adapter records audio chunks in memory, uploads them as a single payload,
// and drives a remote transcription job to a terminal state.
type Adapter struct {
	cfg   config.CloudConfig
	store ObjectStore
	jobs  JobClient

	mu     sync.Mutex
	status Status
	chunks [][]byte

	now func() time.Time
}

func New(cfg config.CloudConfig, store ObjectStore, jobs JobClient) *Adapter {
	return &Adapter{
		cfg:    cfg,
		store:  store,
		jobs:   jobs,
		status: Idle,
		now:    time.Now,
	}
}

func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Adapter) setStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// Start begins chunked audio capture.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != Idle {
		return fmt.Errorf("cannot start transcription from state %s", a.status)
	}
	a.status = Recording
	a.chunks = nil
	return nil
}

// AddChunk buffers one captured audio chunk.
func (a *Adapter) AddChunk(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != Recording {
		return fmt.Errorf("not recording (state %s)", a.status)
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	a.chunks = append(a.chunks, chunk)
	return nil
}

// StopAndTranscribe concatenates the buffered audio, uploads it, runs the job
// to completion, and parses the result artifact. The adapter ends in
// Completed or Failed; a Failed run returns the failure as an error and the
// caller decides how to degrade (typically the scripted mock).
func (a *Adapter) StopAndTranscribe(ctx context.Context) ([]meeting.TranscriptEntry, error) {
	a.mu.Lock()
	if a.status != Recording {
		a.mu.Unlock()
		return nil, fmt.Errorf("cannot stop transcription from state %s", a.status)
	}
	a.status = Uploading
	payload := concat(a.chunks)
	a.chunks = nil
	a.mu.Unlock()

	entries, err := a.run(ctx, payload)
	if err != nil {
		a.setStatus(Failed)
		return nil, err
	}
	a.setStatus(Completed)
	return entries, nil
}

// Reset returns a terminal adapter to Idle for the next session.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == Completed || a.status == Failed {
		a.status = Idle
		a.chunks = nil
	}
}

func (a *Adapter) run(ctx context.Context, payload []byte) ([]meeting.TranscriptEntry, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("no audio captured")
	}

	// Timestamped names keep concurrent sessions from colliding on keys.
	jobName := fmt.Sprintf("meeting-%d", a.now().UnixNano())
	audioKey := fmt.Sprintf("recordings/%s.wav", jobName)
	outputKey := fmt.Sprintf("%s%s.json", a.cfg.OutputPrefix, jobName)

	log.Printf("transcribe: uploading %d bytes to %s", len(payload), audioKey)
	uri, err := a.store.Put(ctx, audioKey, payload, "audio/wav")
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	a.setStatus(JobSubmitted)
	log.Printf("transcribe: starting job %s for %s", jobName, uri)
	if err := a.jobs.StartJob(ctx, jobName, uri, a.cfg.LanguageCode, outputKey); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobName, err)
	}

	a.setStatus(Polling)
	if err := a.poll(ctx, jobName); err != nil {
		return nil, err
	}

	artifact, err := a.jobs.FetchResult(ctx, jobName)
	if err != nil {
		return nil, fmt.Errorf("fetch result for job %s: %w", jobName, err)
	}

	entries, err := ParseResult(artifact)
	if err != nil {
		return nil, fmt.Errorf("parse result for job %s: %w", jobName, err)
	}
	log.Printf("transcribe: job %s completed with %d entries", jobName, len(entries))
	return entries, nil
}

func (a *Adapter) poll(ctx context.Context, jobName string) error {
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("polling job %s: %w", jobName, ctx.Err())
		case <-ticker.C:
		}

		status, err := a.jobs.GetJobStatus(ctx, jobName)
		if err != nil {
			// Transient status-check failures are reported but do not end
			// the poll; the next tick retries.
			log.Printf("transcribe: status check for %s failed: %v", jobName, err)
			continue
		}

		switch status.State {
		case JobCompleted:
			return nil
		case JobFailed:
			return fmt.Errorf("job %s failed: %s", jobName, status.FailureReason)
		case JobInProgress:
			// keep polling
		default:
			log.Printf("transcribe: job %s in unknown state %q", jobName, status.State)
		}
	}
}

func concat(chunks [][]byte) []byte {
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
