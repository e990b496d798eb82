// Package config loads client configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the ordering client configuration.
type Config struct {
	// APIURL is the backend root, e.g. "http://localhost:5000".
	APIURL string `yaml:"api_url"`
	// SessionFile overrides the session file location. Optional.
	SessionFile string `yaml:"session_file"`
	// DebugAddr, when set, serves /metrics and /healthz locally,
	// e.g. "127.0.0.1:9180". Empty disables the listener.
	DebugAddr string `yaml:"debug_addr"`
	// LogLevel sets logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		APIURL:   "http://localhost:5000",
		LogLevel: "info",
	}
}

// Load reads config/quickplate.yaml relative to the working directory.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "quickplate.yaml"))
}

// LoadFromPath reads the configuration from a specific path and applies
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is required")
	}
	return cfg, nil
}

// LoadOrDefault loads the config file or falls back to defaults (with env
// overrides) when the file does not exist.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		cfg.applyEnv()
	}
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("QUICKPLATE_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("QUICKPLATE_SESSION_FILE"); v != "" {
		c.SessionFile = v
	}
	if v := os.Getenv("QUICKPLATE_DEBUG_ADDR"); v != "" {
		c.DebugAddr = v
	}
	if v := os.Getenv("QUICKPLATE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
