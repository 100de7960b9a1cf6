package config

import "time"

type Config struct {
	Capture       CaptureConfig       `toml:"capture"`
	Cloud         CloudConfig         `toml:"cloud"`
	Summarizer    SummarizerConfig    `toml:"summarizer"`
	Storage       StorageConfig       `toml:"storage"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// CaptureConfig configures the live speech capture adapter.
type CaptureConfig struct {
	Engine            string `toml:"engine"`   // "websocket" or "scripted"
	Endpoint          string `toml:"endpoint"` // websocket engine URL
	APIKey            string `toml:"api_key"`
	Language          string `toml:"language"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`
	// Scripted engine cadence: one canned utterance per interval.
	ScriptInterval time.Duration `toml:"script_interval"`
}

// CloudConfig configures the batch transcription path: object storage staging
// plus the asynchronous transcription job service.
type CloudConfig struct {
	Region             string        `toml:"region"`
	Bucket             string        `toml:"bucket"`
	AccessKeyID        string        `toml:"access_key_id"`
	SecretAccessKey    string        `toml:"secret_access_key"`
	SessionToken       string        `toml:"session_token"`
	StorageEndpoint    string        `toml:"storage_endpoint"`
	TranscribeEndpoint string        `toml:"transcribe_endpoint"`
	LanguageCode       string        `toml:"language_code"`
	OutputPrefix       string        `toml:"output_prefix"`
	PollInterval       time.Duration `toml:"poll_interval"`
}

// SummarizerConfig configures the key-point extraction adapter.
type SummarizerConfig struct {
	APIKey      string        `toml:"api_key"`
	BaseURL     string        `toml:"base_url"`
	Models      []string      `toml:"models"` // tried in order on model-level rejection
	Timeout     time.Duration `toml:"timeout"`
	Temperature float32       `toml:"temperature"`
	MaxTokens   int           `toml:"max_tokens"`
	WindowSize  int           `toml:"window_size"`  // recent entries embedded in the prompt
	MinEntries  int           `toml:"min_entries"`  // debounce: analyze after this many new entries
	MaxInterval time.Duration `toml:"max_interval"` // debounce: or after this much time
}

// StorageConfig configures the persistence gateway. UserID empty means no
// authenticated session: meetings are saved to local storage only.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
	LocalDir     string `toml:"local_dir"`
	UserID       string `toml:"user_id"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
