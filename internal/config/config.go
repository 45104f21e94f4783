// Package config loads qmd configuration from a YAML file with environment
// overrides.
//
// The file lives at ~/.qmd/config.yaml by default. Every field is optional;
// a missing file yields the defaults. Environment variables win over file
// values, so ad-hoc overrides never require editing the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized as overrides.
const (
	EnvDBPath            = "QMD_DB_PATH"
	EnvEmbeddingProvider = "QMD_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "QMD_EMBEDDING_MODEL"
	EnvDefaultLimit      = "QMD_DEFAULT_LIMIT"
	EnvConfigPath        = "QMD_CONFIG"
)

// Config holds the settings for the index database and embedding backend.
type Config struct {
	// DBPath is the SQLite database file. Defaults to ~/.qmd/index.db.
	DBPath string `yaml:"db_path"`

	Embedding EmbeddingConfig `yaml:"embedding"`

	// DefaultLimit caps result counts when a command does not specify one.
	DefaultLimit int `yaml:"default_limit"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	// Provider is openai, ollama or local. Empty means auto-detect from the
	// environment.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:       filepath.Join(baseDir(), "index.db"),
		DefaultLimit: 20,
	}
}

// Load reads the config file, applies environment overrides, and fills in
// defaults. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile(DefaultPath())
}

// LoadFile is Load with an explicit file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(baseDir(), "index.db")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}

	return cfg, nil
}

// DefaultPath returns the config file location, honoring QMD_CONFIG.
func DefaultPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return filepath.Join(baseDir(), "config.yaml")
}

// EnsureDBDir creates the directory holding the database file.
func (c *Config) EnsureDBDir() error {
	return os.MkdirAll(filepath.Dir(c.DBPath), 0o755)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv(EnvDefaultLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultLimit = n
		}
	}
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qmd"
	}
	return filepath.Join(home, ".qmd")
}
