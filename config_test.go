package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("IKOI_API_URL", "")
	t.Setenv("IKOI_API_KEY", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("default api url = %q", cfg.APIURL)
	}
	if cfg.Storage != "bolt" {
		t.Errorf("default storage = %q", cfg.Storage)
	}
	if cfg.Recorder.Command != "arecord" {
		t.Errorf("default recorder = %q", cfg.Recorder.Command)
	}
	if cfg.DataDir != filepath.Join(home, ".ikoi") {
		t.Errorf("default data dir = %q", cfg.DataDir)
	}
	if got := cfg.storagePath(); got != filepath.Join(cfg.DataDir, "ikoi.db") {
		t.Errorf("bolt storage path = %q", got)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".ikoi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "api_url: http://file:9000\napi_key: from-file\nstorage: sqlite\ntheme: dusk\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("IKOI_API_URL", "http://env:7000")
	t.Setenv("IKOI_API_KEY", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "http://env:7000" {
		t.Errorf("env should override file, got %q", cfg.APIURL)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("file api key lost, got %q", cfg.APIKey)
	}
	if cfg.Theme != "dusk" {
		t.Errorf("theme = %q", cfg.Theme)
	}
	if got := cfg.storagePath(); got != filepath.Join(cfg.DataDir, "ikoi.sqlite") {
		t.Errorf("sqlite storage path = %q", got)
	}
}

func TestLoadConfigUnparsable(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".ikoi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\n\t- broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for unparsable config file")
	}
}
