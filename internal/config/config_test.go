package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("base URL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.UseDocling {
		t.Error("docling should default off")
	}
	if cfg.Chat.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Chat.Provider)
	}
	if cfg.UI.HistoryLimit <= 0 {
		t.Errorf("history limit = %d", cfg.UI.HistoryLimit)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("base URL = %q, want default", cfg.Server.BaseURL)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "http://kb.internal:9000"
	cfg.Server.UseDocling = true
	cfg.Chat.Provider = "anthropic"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.BaseURL != "http://kb.internal:9000" {
		t.Errorf("base URL = %q", loaded.Server.BaseURL)
	}
	if !loaded.Server.UseDocling {
		t.Error("docling flag lost")
	}
	if loaded.Chat.Provider != "anthropic" {
		t.Errorf("provider = %q", loaded.Chat.Provider)
	}
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".docent")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("base URL = %q, want default after corrupt file", cfg.Server.BaseURL)
	}
}

func TestAutoPopulateFromEnv(t *testing.T) {
	t.Setenv("DOCENT_API_URL", "http://kb.example:8001")
	t.Setenv("DOCENT_CHAT_PROVIDER", "ollama")

	cfg := DefaultConfig()
	cfg.AutoPopulateFromEnv()

	if cfg.Server.BaseURL != "http://kb.example:8001" {
		t.Errorf("base URL = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.Provider != "ollama" {
		t.Errorf("provider = %q", cfg.Chat.Provider)
	}
}
