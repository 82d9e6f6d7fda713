package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RecorderConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

type TranscriberConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

type Config struct {
	APIURL      string            `yaml:"api_url,omitempty"`
	APIKey      string            `yaml:"api_key,omitempty"`
	DataDir     string            `yaml:"data_dir,omitempty"`
	Storage     string            `yaml:"storage,omitempty"` // bolt (default) or sqlite
	Theme       string            `yaml:"theme,omitempty"`
	Recorder    RecorderConfig    `yaml:"recorder,omitempty"`
	Transcriber TranscriberConfig `yaml:"transcriber,omitempty"`
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ikoi"
	}
	return filepath.Join(home, ".ikoi")
}

// loadConfig reads ~/.ikoi/config.yaml, layering .env and environment
// variables on top. A missing config file is fine; an unparsable one is an
// error the user should see.
func loadConfig() (*Config, error) {
	// .env is a convenience for API keys; absence is normal.
	godotenv.Load()

	cfg := &Config{}

	configPath := filepath.Join(defaultDataDir(), "config.yaml")
	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if v := os.Getenv("IKOI_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("IKOI_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:8000"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.Storage == "" {
		cfg.Storage = "bolt"
	}
	if cfg.Recorder.Command == "" {
		cfg.Recorder.Command = "arecord"
		if cfg.Recorder.Args == nil {
			cfg.Recorder.Args = []string{"-q", "-f", "cd"}
		}
	}

	return cfg, nil
}

func (c *Config) storagePath() string {
	if c.Storage == "sqlite" {
		return filepath.Join(c.DataDir, "ikoi.sqlite")
	}
	return filepath.Join(c.DataDir, "ikoi.db")
}

func (c *Config) capturesDir() string {
	return filepath.Join(c.DataDir, "captures")
}

func (c *Config) filesDir() string {
	return filepath.Join(c.DataDir, "files")
}
