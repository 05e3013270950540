package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional per-project configuration file, looked up in
// the current directory.
const ConfigFile = ".kiln.yaml"

// Config holds project-level defaults. Command-line flags always win over
// config values, which win over built-in defaults.
type Config struct {
	// Manifest is the path to the CUE target manifest.
	Manifest string `yaml:"manifest,omitempty"`

	// History is the path to the history database.
	History string `yaml:"history,omitempty"`

	// NoColor disables colored terminal output.
	NoColor bool `yaml:"no_color,omitempty"`
}

// LoadConfig reads the config at path. A missing file is not an error and
// yields the zero config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Strict field validation catches typos like "manifests:"
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// ManifestPath resolves the manifest location: flag, then config, then
// kiln.cue in the working directory.
func (c *Config) ManifestPath(flag string) string {
	if flag != "" {
		return flag
	}
	if c.Manifest != "" {
		return c.Manifest
	}
	return "kiln.cue"
}

// HistoryPath resolves the history database location: flag, then config,
// then the user cache directory.
func (c *Config) HistoryPath(flag string) string {
	if flag != "" {
		return flag
	}
	if c.History != "" {
		return c.History
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "kiln", "history.db")
	}
	return filepath.Join(".kiln", "history.db")
}
