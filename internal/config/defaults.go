package config

import "time"

// Sentinel credentials shipped in the default config. The system treats them
// as "unconfigured" and runs the mock paths until they are replaced.
const (
	SentinelAccessKey = "YOUR_ACCESS_KEY_ID"
	SentinelSecretKey = "YOUR_SECRET_ACCESS_KEY"
)

// DefaultConfig returns the initial configuration written by setup.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Engine:            "scripted",
			Language:          "en-US",
			ChannelBufferSize: 30,
			ScriptInterval:    2 * time.Second,
		},
		Cloud: CloudConfig{
			Region:          "us-east-1",
			Bucket:          "",
			AccessKeyID:     SentinelAccessKey,
			SecretAccessKey: SentinelSecretKey,
			LanguageCode:    "en-US",
			OutputPrefix:    "transcripts/",
			PollInterval:    5 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Models:      []string{"gpt-4o-mini", "gpt-4o"},
			Timeout:     5 * time.Second,
			Temperature: 0.3,
			MaxTokens:   1000,
			WindowSize:  20,
			MinEntries:  5,
			MaxInterval: 45 * time.Second,
		},
		Storage: StorageConfig{},
		Notifications: NotificationsConfig{
			Enabled: false,
			Type:    "",
		},
	}
}
