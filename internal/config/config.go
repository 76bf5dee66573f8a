// Package config provides configuration loading and structs for the araldo service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Uploads   UploadsConfig   `yaml:"uploads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the on-disk indices.
// Everything lives under one working directory.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// CrawlConfig holds crawl limits and fetch behavior for the seed origin.
type CrawlConfig struct {
	SeedURL          string  `yaml:"seed_url"`
	MaxPages         int     `yaml:"max_pages"`
	MaxDepth         int     `yaml:"max_depth"`
	Concurrency      int     `yaml:"concurrency"`
	FetchTimeoutSecs int     `yaml:"fetch_timeout_seconds"`
	RequestsPerSec   float64 `yaml:"requests_per_second"`
	MinContentLength int     `yaml:"min_content_length"`
	UserAgent        string  `yaml:"user_agent"`
	// Schedule is an optional cron expression; when set, the server runs a
	// refresh on that schedule.
	Schedule string `yaml:"schedule"`
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c *CrawlConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// EmbeddingConfig holds settings for the remote embedding collaborator.
type EmbeddingConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	Model             string `yaml:"model"`
	Dimensions        int    `yaml:"dimensions"`
	MaxTokensPerChunk int    `yaml:"max_tokens_per_chunk"`
	CacheSize         int    `yaml:"cache_size"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	TopK    int `yaml:"top_k"`
	MaxTopK int `yaml:"max_top_k"`
}

// UploadsConfig holds the drop-directory for manual document uploads.
type UploadsConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	if cfg.Uploads.Directory != "" {
		cfg.Uploads.Directory = expandPath(cfg.Uploads.Directory, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
