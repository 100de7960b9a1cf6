package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateConfig points the user config and env lookups at a temp dir so tests
// never touch a real installation.
func isolateConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, v := range []string{"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "S3_BUCKET_NAME", "OPENAI_API_KEY"} {
		t.Setenv(v, "")
	}
	return dir
}

func writeConfig(t *testing.T, content string) {
	t.Helper()

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolateConfig(t)

	_, err := Load()
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	isolateConfig(t)
	writeConfig(t, `
[capture]
engine = "scripted"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Capture.ChannelBufferSize != 30 {
		t.Errorf("ChannelBufferSize = %d, want default 30", cfg.Capture.ChannelBufferSize)
	}
	if cfg.Cloud.Region != "us-east-1" {
		t.Errorf("Region = %q, want default us-east-1", cfg.Cloud.Region)
	}
	if cfg.Summarizer.MinEntries != 5 || cfg.Summarizer.MaxInterval != 45*time.Second {
		t.Errorf("debounce defaults = %d/%v", cfg.Summarizer.MinEntries, cfg.Summarizer.MaxInterval)
	}
	if cfg.Storage.DatabasePath == "" || cfg.Storage.LocalDir == "" {
		t.Errorf("storage paths not defaulted: %+v", cfg.Storage)
	}
}

func TestLoad_FileValuesWin(t *testing.T) {
	isolateConfig(t)
	writeConfig(t, `
[capture]
engine = "websocket"
endpoint = "wss://stt.example.com/v1"
api_key = "file-key"
script_interval = "250ms"

[summarizer]
timeout = "9s"
models = ["local-model"]
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Capture.Engine != "websocket" || cfg.Capture.Endpoint != "wss://stt.example.com/v1" {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if cfg.Capture.ScriptInterval != 250*time.Millisecond {
		t.Errorf("ScriptInterval = %v", cfg.Capture.ScriptInterval)
	}
	if cfg.Summarizer.Timeout != 9*time.Second {
		t.Errorf("Timeout = %v", cfg.Summarizer.Timeout)
	}
	if len(cfg.Summarizer.Models) != 1 || cfg.Summarizer.Models[0] != "local-model" {
		t.Errorf("Models = %v", cfg.Summarizer.Models)
	}
}

func TestLoad_EnvOverridesCredentials(t *testing.T) {
	isolateConfig(t)
	writeConfig(t, `
[cloud]
region = "eu-west-1"
bucket = "file-bucket"
access_key_id = "file-access"
secret_access_key = "file-secret"
`)
	t.Setenv("AWS_REGION", "ap-southeast-2")
	t.Setenv("AWS_ACCESS_KEY_ID", "env-access")
	t.Setenv("S3_BUCKET_NAME", "env-bucket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.Region != "ap-southeast-2" {
		t.Errorf("Region = %q, env should win", cfg.Cloud.Region)
	}
	if cfg.Cloud.AccessKeyID != "env-access" {
		t.Errorf("AccessKeyID = %q, env should win", cfg.Cloud.AccessKeyID)
	}
	if cfg.Cloud.Bucket != "env-bucket" {
		t.Errorf("Bucket = %q, env should win", cfg.Cloud.Bucket)
	}
	if cfg.Cloud.SecretAccessKey != "file-secret" {
		t.Errorf("SecretAccessKey = %q, file value should survive", cfg.Cloud.SecretAccessKey)
	}
}

func TestSaveAndReload(t *testing.T) {
	isolateConfig(t)

	cfg := DefaultConfig()
	cfg.Capture.Engine = "websocket"
	cfg.Capture.Endpoint = "wss://stt.example.com/v1"
	cfg.Capture.APIKey = "saved-key"
	cfg.Storage.UserID = "user-42"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Capture.Engine != "websocket" || got.Capture.APIKey != "saved-key" {
		t.Errorf("capture = %+v", got.Capture)
	}
	if got.Storage.UserID != "user-42" {
		t.Errorf("UserID = %q", got.Storage.UserID)
	}
	if got.Summarizer.MaxInterval != cfg.Summarizer.MaxInterval {
		t.Errorf("MaxInterval = %v, want %v", got.Summarizer.MaxInterval, cfg.Summarizer.MaxInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"websocket without endpoint", func(c *Config) {
			c.Capture.Engine = "websocket"
			c.Capture.APIKey = "k"
		}, true},
		{"websocket without key", func(c *Config) {
			c.Capture.Engine = "websocket"
			c.Capture.Endpoint = "wss://x"
		}, true},
		{"websocket complete", func(c *Config) {
			c.Capture.Engine = "websocket"
			c.Capture.Endpoint = "wss://x"
			c.Capture.APIKey = "k"
		}, false},
		{"unknown engine", func(c *Config) { c.Capture.Engine = "telepathy" }, true},
		{"zero buffer", func(c *Config) { c.Capture.ChannelBufferSize = -1 }, true},
		{"zero poll interval", func(c *Config) { c.Cloud.PollInterval = 0 }, true},
		{"zero debounce entries", func(c *Config) { c.Summarizer.MinEntries = 0 }, true},
		{"bad notification type", func(c *Config) { c.Notifications.Type = "pager" }, true},
		{"log notifications", func(c *Config) { c.Notifications.Type = "log" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloudConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CloudConfigured() {
		t.Error("sentinel credentials reported as configured")
	}

	cfg.Cloud.Bucket = "meetings"
	cfg.Cloud.AccessKeyID = "AKIDEXAMPLE"
	cfg.Cloud.SecretAccessKey = "secret"
	if !cfg.CloudConfigured() {
		t.Error("real credentials reported as unconfigured")
	}

	cfg.Cloud.Bucket = ""
	if cfg.CloudConfigured() {
		t.Error("missing bucket reported as configured")
	}
}

func TestSummarizerConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SummarizerConfigured() {
		t.Error("empty API key reported as configured")
	}
	cfg.Summarizer.APIKey = "sk-test"
	if !cfg.SummarizerConfigured() {
		t.Error("API key set but reported as unconfigured")
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := isolateConfig(t)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "mindscribe") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}
