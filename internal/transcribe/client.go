package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mindscribe/mindscribe/internal/config"
)

const clientTimeout = 30 * time.Second

// HTTPObjectStore stages payloads against an S3-compatible object storage
// endpoint via plain PUT requests.
type HTTPObjectStore struct {
	cfg    config.CloudConfig
	client *http.Client
}

func NewHTTPObjectStore(cfg config.CloudConfig) *HTTPObjectStore {
	return &HTTPObjectStore{
		cfg:    cfg,
		client: &http.Client{Timeout: clientTimeout},
	}
}

func (s *HTTPObjectStore) baseURL() string {
	if s.cfg.StorageEndpoint != "" {
		return s.cfg.StorageEndpoint
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region)
}

func (s *HTTPObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL(), key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	setCredentialHeaders(req, s.cfg)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("put %s: status %d: %s", key, resp.StatusCode, body)
	}

	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key), nil
}

// HTTPJobClient drives the asynchronous transcription service's REST surface.
type HTTPJobClient struct {
	cfg    config.CloudConfig
	client *http.Client
}

func NewHTTPJobClient(cfg config.CloudConfig) *HTTPJobClient {
	return &HTTPJobClient{
		cfg:    cfg,
		client: &http.Client{Timeout: clientTimeout},
	}
}

func (c *HTTPJobClient) baseURL() string {
	if c.cfg.TranscribeEndpoint != "" {
		return c.cfg.TranscribeEndpoint
	}
	return fmt.Sprintf("https://transcribe.%s.amazonaws.com", c.cfg.Region)
}

type startJobRequest struct {
	Name           string `json:"name"`
	MediaURI       string `json:"media_uri"`
	LanguageCode   string `json:"language_code"`
	OutputLocation string `json:"output_location"`
}

type jobStatusResponse struct {
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (c *HTTPJobClient) StartJob(ctx context.Context, name, sourceURI, languageCode, outputKey string) error {
	body, err := json.Marshal(startJobRequest{
		Name:           name,
		MediaURI:       sourceURI,
		LanguageCode:   languageCode,
		OutputLocation: outputKey,
	})
	if err != nil {
		return fmt.Errorf("encode start request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/jobs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setCredentialHeaders(req, c.cfg)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("start job: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *HTTPJobClient) GetJobStatus(ctx context.Context, name string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/jobs/"+name, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("build status request: %w", err)
	}
	setCredentialHeaders(req, c.cfg)

	resp, err := c.client.Do(req)
	if err != nil {
		return JobStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return JobStatus{}, fmt.Errorf("job status: status %d: %s", resp.StatusCode, msg)
	}

	var status jobStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return JobStatus{State: JobState(status.Status), FailureReason: status.FailureReason}, nil
}

func (c *HTTPJobClient) FetchResult(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/jobs/"+name+"/result", nil)
	if err != nil {
		return nil, fmt.Errorf("build result request: %w", err)
	}
	setCredentialHeaders(req, c.cfg)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch result: status %d: %s", resp.StatusCode, msg)
	}

	return io.ReadAll(resp.Body)
}

func setCredentialHeaders(req *http.Request, cfg config.CloudConfig) {
	req.Header.Set("X-Access-Key-Id", cfg.AccessKeyID)
	req.Header.Set("X-Secret-Access-Key", cfg.SecretAccessKey)
	if cfg.SessionToken != "" {
		req.Header.Set("X-Session-Token", cfg.SessionToken)
	}
}
