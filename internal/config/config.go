package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Server connection
	Server ServerConfig `json:"server"`

	// Chat preferences
	Chat ChatConfig `json:"chat"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// ServerConfig holds connection settings for the knowledge-base API
type ServerConfig struct {
	BaseURL string `json:"base_url"`

	// UseDocling selects the alternate parsing pipeline by default.
	// Toggleable per publish from the documents view.
	UseDocling bool `json:"use_docling"`

	// RequestTimeoutSeconds applies to plain request/response calls.
	// Publish calls carry their own dedicated timeouts.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// ChatConfig holds chat preferences
type ChatConfig struct {
	Provider string `json:"provider"` // LLM provider name passed to the server
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme        string `json:"theme"`
	ShowDetail   bool   `json:"show_detail"`   // Show counter detail line under progress
	HistoryLimit int    `json:"history_limit"` // Rows shown in the history view
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:               "http://localhost:8000",
			UseDocling:            false,
			RequestTimeoutSeconds: 15,
		},
		Chat: ChatConfig{
			Provider: "openai",
		},
		UI: UIConfig{
			Theme:        "dark",
			ShowDetail:   true,
			HistoryLimit: 100,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".docent", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	path := ConfigPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}

	cfg.AutoPopulateFromEnv()
	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv overrides settings from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if url := os.Getenv("DOCENT_API_URL"); url != "" {
		c.Server.BaseURL = url
	}
	if provider := os.Getenv("DOCENT_CHAT_PROVIDER"); provider != "" {
		c.Chat.Provider = provider
	}
}
