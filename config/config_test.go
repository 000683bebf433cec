package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHEELY_DATA_DIR", dataDir)
	t.Setenv("WHEELY_QUERY_URL", "")
	t.Setenv("WHEELY_QUERY_BACKEND", "")
	t.Setenv("WHEELY_STORAGE", "")
	t.Setenv("WHEELY_QUERY_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.QueryBackend != "wheely" {
		t.Errorf("backend = %q, want wheely", cfg.QueryBackend)
	}
	if cfg.QueryURL != "http://127.0.0.1:8000/api/query" {
		t.Errorf("url = %q", cfg.QueryURL)
	}
	if cfg.StorageBackend != "file" {
		t.Errorf("storage = %q, want file", cfg.StorageBackend)
	}
	if cfg.Security != SecurityPlainText {
		t.Errorf("security = %q", cfg.Security)
	}
	if !cfg.Typewriter {
		t.Error("typewriter should default on")
	}
	if !FileExists(filepath.Join(dataDir, "config.toml")) {
		t.Error("expected config.toml to be created")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHEELY_DATA_DIR", t.TempDir())
	t.Setenv("WHEELY_QUERY_URL", "http://wheely.internal/api/query")
	t.Setenv("WHEELY_QUERY_BACKEND", "ollama")
	t.Setenv("WHEELY_STORAGE", "bolt")
	t.Setenv("WHEELY_QUERY_TIMEOUT", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.QueryURL != "http://wheely.internal/api/query" {
		t.Errorf("url = %q", cfg.QueryURL)
	}
	if cfg.QueryBackend != "ollama" {
		t.Errorf("backend = %q", cfg.QueryBackend)
	}
	if cfg.StorageBackend != "bolt" {
		t.Errorf("storage = %q", cfg.StorageBackend)
	}
	if cfg.QueryTimeout != 15 {
		t.Errorf("timeout = %d", cfg.QueryTimeout)
	}
}

func TestLoadUserConfigFile(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WHEELY_DATA_DIR", dataDir)
	t.Setenv("WHEELY_QUERY_URL", "")
	t.Setenv("WHEELY_QUERY_BACKEND", "")
	t.Setenv("WHEELY_STORAGE", "")
	t.Setenv("WHEELY_QUERY_TIMEOUT", "")

	content := `[query]
backend = "openai"
model = "gpt-4o-mini"
timeout_seconds = 30

[storage]
backend = "sqlite"

[ui]
typewriter = false
`
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.QueryBackend != "openai" || cfg.QueryModel != "gpt-4o-mini" {
		t.Errorf("query = %q/%q", cfg.QueryBackend, cfg.QueryModel)
	}
	if cfg.QueryURL != "" {
		t.Errorf("non-wheely backend should not get the wheely default url, got %q", cfg.QueryURL)
	}
	if cfg.StorageBackend != "sqlite" {
		t.Errorf("storage = %q", cfg.StorageBackend)
	}
	if cfg.Typewriter {
		t.Error("typewriter should be off")
	}
}

func TestCredentialStorePlainText(t *testing.T) {
	dir := t.TempDir()

	cs := NewCredentialStore(SecurityPlainText, "")
	cs.Set("openai", "sk-one")
	cs.Set("anthropic", "sk-two")
	if err := cs.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials perm = %v, want 0600", info.Mode().Perm())
	}

	loaded := NewCredentialStore(SecurityPlainText, "")
	if err := loaded.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Get("openai") != "sk-one" || loaded.Get("anthropic") != "sk-two" {
		t.Errorf("unexpected credentials: %q %q", loaded.Get("openai"), loaded.Get("anthropic"))
	}
	if loaded.Get("ollama") != "" {
		t.Error("missing backend should yield empty key")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := ExpandPath("~/wheely"); got != filepath.Join(home, "wheely") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("empty path should stay empty, got %q", got)
	}
}
