package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mindscribe/mindscribe/internal/capture"
	"github.com/mindscribe/mindscribe/internal/config"
	"github.com/mindscribe/mindscribe/internal/meeting"
	"github.com/mindscribe/mindscribe/internal/transcribe"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	return &config.Config{
		Capture: config.CaptureConfig{
			Engine:            "scripted",
			Language:          "en-US",
			ChannelBufferSize: 30,
			ScriptInterval:    10 * time.Millisecond,
		},
		Cloud: config.CloudConfig{
			Region:          "us-east-1",
			Bucket:          "test-bucket",
			AccessKeyID:     "test-access-key",
			SecretAccessKey: "test-secret-key",
			LanguageCode:    "en-US",
			OutputPrefix:    "transcripts/",
			PollInterval:    5 * time.Millisecond,
		},
		Summarizer: config.SummarizerConfig{
			APIKey:      "test-api-key",
			Models:      []string{"gpt-4o-mini", "gpt-4o"},
			Timeout:     5 * time.Second,
			Temperature: 0.3,
			MaxTokens:   512,
			WindowSize:  20,
			MinEntries:  5,
			MaxInterval: 45 * time.Second,
		},
		Storage: config.StorageConfig{
			DatabasePath: filepath.Join(os.TempDir(), "mindscribe-test.db"),
			LocalDir:     os.TempDir(),
			UserID:       "test-user",
		},
		Notifications: config.NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
	}
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Entries builds untagged transcript entries from plain strings
func Entries(texts ...string) []meeting.TranscriptEntry {
	entries := make([]meeting.TranscriptEntry, 0, len(texts))
	for _, t := range texts {
		entries = append(entries, meeting.TranscriptEntry{Text: t})
	}
	return entries
}

// MockEngine implements capture.Engine for testing
type MockEngine struct {
	Results    []capture.Result
	StartError error
	// CloseAfterResults closes the result channel once all results are sent,
	// which the adapter treats as an engine crash.
	CloseAfterResults bool

	mu      sync.Mutex
	stopCh  chan struct{}
	running atomic.Bool
	starts  atomic.Int32
}

func NewMockEngine(texts ...string) *MockEngine {
	results := make([]capture.Result, 0, len(texts))
	for _, t := range texts {
		results = append(results, capture.Result{Text: t})
	}
	return &MockEngine{Results: results}
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Start(ctx context.Context) (<-chan capture.Result, <-chan error, error) {
	m.starts.Add(1)

	if m.StartError != nil {
		return nil, nil, m.StartError
	}

	m.mu.Lock()
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.running.Store(true)

	resultCh := make(chan capture.Result, len(m.Results)+1)
	errCh := make(chan error, 1)

	// Results are buffered before Start returns so callers see the full
	// burst even when they stop immediately.
	for _, r := range m.Results {
		resultCh <- r
	}

	go func() {
		defer close(errCh)

		if m.CloseAfterResults {
			close(resultCh)
			return
		}

		select {
		case <-ctx.Done():
		case <-stopCh:
		}
		close(resultCh)
	}()

	return resultCh, errCh, nil
}

func (m *MockEngine) Stop() error {
	if !m.running.Load() {
		return nil
	}
	m.running.Store(false)

	m.mu.Lock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	m.mu.Unlock()
	return nil
}

func (m *MockEngine) Starts() int {
	return int(m.starts.Load())
}

// MockSummarizer implements summarize.Adapter for testing
type MockSummarizer struct {
	GenerateFunc func(ctx context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error)

	mu    sync.Mutex
	calls [][]meeting.TranscriptEntry
}

func (m *MockSummarizer) GenerateKeyPoints(ctx context.Context, snapshot []meeting.TranscriptEntry) (meeting.Insights, error) {
	m.mu.Lock()
	m.calls = append(m.calls, snapshot)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, snapshot)
	}
	return meeting.Insights{KeyPoints: []string{"mock key point"}}, nil
}

func (m *MockSummarizer) Calls() [][]meeting.TranscriptEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]meeting.TranscriptEntry(nil), m.calls...)
}

// MockObjectStore implements transcribe.ObjectStore for testing
type MockObjectStore struct {
	PutError error

	mu      sync.Mutex
	Uploads map[string][]byte
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Uploads: make(map[string][]byte)}
}

func (m *MockObjectStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.PutError != nil {
		return "", m.PutError
	}
	m.mu.Lock()
	m.Uploads[key] = data
	m.mu.Unlock()
	return "s3://test-bucket/" + key, nil
}

// MockJobClient implements transcribe.JobClient for testing. Statuses are
// returned in order, repeating the last one once exhausted.
type MockJobClient struct {
	StartError   error
	StatusErrors []error
	Statuses     []transcribe.JobStatus
	Result       []byte
	ResultError  error

	mu         sync.Mutex
	started    []string
	statusIdx  int
	statusReqs atomic.Int32
}

func (m *MockJobClient) StartJob(_ context.Context, name, _, _, _ string) error {
	if m.StartError != nil {
		return m.StartError
	}
	m.mu.Lock()
	m.started = append(m.started, name)
	m.mu.Unlock()
	return nil
}

func (m *MockJobClient) GetJobStatus(_ context.Context, _ string) (transcribe.JobStatus, error) {
	m.statusReqs.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statusIdx < len(m.StatusErrors) && m.StatusErrors[m.statusIdx] != nil {
		err := m.StatusErrors[m.statusIdx]
		m.statusIdx++
		return transcribe.JobStatus{}, err
	}

	if len(m.Statuses) == 0 {
		return transcribe.JobStatus{State: transcribe.JobCompleted}, nil
	}
	idx := m.statusIdx
	if idx >= len(m.Statuses) {
		idx = len(m.Statuses) - 1
	}
	m.statusIdx++
	return m.Statuses[idx], nil
}

func (m *MockJobClient) FetchResult(_ context.Context, _ string) ([]byte, error) {
	if m.ResultError != nil {
		return nil, m.ResultError
	}
	return m.Result, nil
}

func (m *MockJobClient) StartedJobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.started...)
}

func (m *MockJobClient) StatusCalls() int {
	return int(m.statusReqs.Load())
}
