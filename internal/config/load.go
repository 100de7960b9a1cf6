package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var ErrConfigNotFound = errors.New("config not found")

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	dir := filepath.Join(configDir, "mindscribe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run mindscribe setup", ErrConfigNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("config: loading configuration from %s", configPath)
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	config.applyEnvOverrides()

	log.Printf("config: configuration loaded successfully")
	return &config, nil
}

// Save writes the config back to the user config path.
func Save(c *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Capture.Engine == "" {
		c.Capture.Engine = def.Capture.Engine
	}
	if c.Capture.Language == "" {
		c.Capture.Language = def.Capture.Language
	}
	if c.Capture.ChannelBufferSize == 0 {
		c.Capture.ChannelBufferSize = def.Capture.ChannelBufferSize
	}
	if c.Capture.ScriptInterval == 0 {
		c.Capture.ScriptInterval = def.Capture.ScriptInterval
	}

	if c.Cloud.Region == "" {
		c.Cloud.Region = def.Cloud.Region
	}
	if c.Cloud.LanguageCode == "" {
		c.Cloud.LanguageCode = def.Cloud.LanguageCode
	}
	if c.Cloud.OutputPrefix == "" {
		c.Cloud.OutputPrefix = def.Cloud.OutputPrefix
	}
	if c.Cloud.PollInterval == 0 {
		c.Cloud.PollInterval = def.Cloud.PollInterval
	}

	if len(c.Summarizer.Models) == 0 {
		c.Summarizer.Models = def.Summarizer.Models
	}
	if c.Summarizer.Timeout == 0 {
		c.Summarizer.Timeout = def.Summarizer.Timeout
	}
	if c.Summarizer.Temperature == 0 {
		c.Summarizer.Temperature = def.Summarizer.Temperature
	}
	if c.Summarizer.MaxTokens == 0 {
		c.Summarizer.MaxTokens = def.Summarizer.MaxTokens
	}
	if c.Summarizer.WindowSize == 0 {
		c.Summarizer.WindowSize = def.Summarizer.WindowSize
	}
	if c.Summarizer.MinEntries == 0 {
		c.Summarizer.MinEntries = def.Summarizer.MinEntries
	}
	if c.Summarizer.MaxInterval == 0 {
		c.Summarizer.MaxInterval = def.Summarizer.MaxInterval
	}

	if c.Storage.DatabasePath == "" || c.Storage.LocalDir == "" {
		if dataDir, err := defaultDataDir(); err == nil {
			if c.Storage.DatabasePath == "" {
				c.Storage.DatabasePath = filepath.Join(dataDir, "meetings.db")
			}
			if c.Storage.LocalDir == "" {
				c.Storage.LocalDir = filepath.Join(dataDir, "meetings")
			}
		}
	}
}

// applyEnvOverrides lets environment variables win over file values for
// credentials, matching how the cloud SDKs are usually configured.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Cloud.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Cloud.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Cloud.SecretAccessKey = v
	}
	if v := os.Getenv("AWS_SESSION_TOKEN"); v != "" {
		c.Cloud.SessionToken = v
	}
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		c.Cloud.Bucket = v
	}
	if c.Summarizer.APIKey == "" {
		c.Summarizer.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "share", "mindscribe")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
