package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds the settings for the local CLI, stored as YAML under
// the drill directory.
type LocalConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Exercises struct {
		Path string `yaml:"path"`
	} `yaml:"exercises"`

	Sandbox struct {
		Backend   string  `yaml:"backend"`
		Image     string  `yaml:"image"`
		TimeoutMs int     `yaml:"timeout_ms"`
		MemoryMB  int     `yaml:"memory_mb"`
		CPULimit  float64 `yaml:"cpu_limit"`
	} `yaml:"sandbox"`

	Review struct {
		DesiredRetention float64 `yaml:"desired_retention"`
		MasteryStreak    int     `yaml:"mastery_streak"`
	} `yaml:"review"`
}

// DrillDir returns the drill home directory, ~/.drill by default.
// DRILL_DIR overrides it.
func DrillDir() (string, error) {
	if dir := os.Getenv("DRILL_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".drill"), nil
}

// EnsureDrillDir creates the drill directory if it does not exist.
func EnsureDrillDir() (string, error) {
	dir, err := DrillDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating drill directory: %w", err)
	}
	return dir, nil
}

// DefaultLocalConfig returns a LocalConfig with working defaults for a
// fresh installation.
func DefaultLocalConfig() (*LocalConfig, error) {
	dir, err := DrillDir()
	if err != nil {
		return nil, err
	}

	cfg := &LocalConfig{}
	cfg.Database.Path = filepath.Join(dir, "drill.db")
	cfg.Exercises.Path = filepath.Join(dir, "exercises")
	cfg.Sandbox.Backend = "subprocess"
	cfg.Sandbox.Image = "python:3.12-alpine"
	cfg.Sandbox.TimeoutMs = 5000
	cfg.Sandbox.MemoryMB = 128
	cfg.Sandbox.CPULimit = 0.5
	cfg.Review.DesiredRetention = 0.9
	cfg.Review.MasteryStreak = 3
	return cfg, nil
}

// LoadLocalConfig reads config.yaml from the drill directory. A missing
// file yields the defaults; fields absent from the file keep their
// default values.
func LoadLocalConfig() (*LocalConfig, error) {
	cfg, err := DefaultLocalConfig()
	if err != nil {
		return nil, err
	}

	dir, err := DrillDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveLocalConfig writes the config to config.yaml in the drill
// directory, creating the directory if needed.
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDrillDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
