package config

import "fmt"

func (c *Config) Validate() error {
	switch c.Capture.Engine {
	case "websocket":
		if c.Capture.Endpoint == "" {
			return fmt.Errorf("invalid capture.endpoint: required for the websocket engine")
		}
		if c.Capture.APIKey == "" {
			return fmt.Errorf("capture API key required: set capture.api_key for the websocket engine")
		}
	case "scripted":
		// no external requirements
	case "":
		return fmt.Errorf("invalid capture.engine: empty")
	default:
		return fmt.Errorf("invalid capture.engine: %s (must be websocket or scripted)", c.Capture.Engine)
	}

	if c.Capture.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid capture.channel_buffer_size: %d", c.Capture.ChannelBufferSize)
	}
	if c.Capture.ScriptInterval <= 0 {
		return fmt.Errorf("invalid capture.script_interval: %v", c.Capture.ScriptInterval)
	}

	if c.Cloud.PollInterval <= 0 {
		return fmt.Errorf("invalid cloud.poll_interval: %v", c.Cloud.PollInterval)
	}

	if c.Summarizer.Timeout <= 0 {
		return fmt.Errorf("invalid summarizer.timeout: %v", c.Summarizer.Timeout)
	}
	if c.Summarizer.WindowSize <= 0 {
		return fmt.Errorf("invalid summarizer.window_size: %d", c.Summarizer.WindowSize)
	}
	if c.Summarizer.MinEntries <= 0 {
		return fmt.Errorf("invalid summarizer.min_entries: %d", c.Summarizer.MinEntries)
	}
	if c.Summarizer.MaxInterval <= 0 {
		return fmt.Errorf("invalid summarizer.max_interval: %v", c.Summarizer.MaxInterval)
	}

	switch c.Notifications.Type {
	case "", "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

// CloudConfigured reports whether the batch transcription path can run live.
// Sentinel placeholder credentials count as unconfigured.
func (c *Config) CloudConfigured() bool {
	cl := c.Cloud
	if cl.Bucket == "" || cl.Region == "" {
		return false
	}
	if cl.AccessKeyID == "" || cl.AccessKeyID == SentinelAccessKey {
		return false
	}
	if cl.SecretAccessKey == "" || cl.SecretAccessKey == SentinelSecretKey {
		return false
	}
	return true
}

// SummarizerConfigured reports whether live key-point extraction can run.
func (c *Config) SummarizerConfigured() bool {
	return c.Summarizer.APIKey != ""
}
