// Package config provides configuration loading and structs for qsim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Query     string          `yaml:"query"`
	Datasets  DatasetsConfig  `yaml:"datasets"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Report    ReportConfig    `yaml:"report"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// DatasetsConfig describes where candidate records come from.
type DatasetsConfig struct {
	Root           string   `yaml:"root"`
	Folders        []string `yaml:"folders"`
	Extensions     []string `yaml:"extensions"`
	Recursive      bool     `yaml:"recursive"`
	TopicColumn    string   `yaml:"topic_column"`
	QuestionColumn string   `yaml:"question_column"`
}

// FolderPaths returns each dataset folder joined to Root (absolute folders are kept).
func (d *DatasetsConfig) FolderPaths() []string {
	out := make([]string, len(d.Folders))
	for i, f := range d.Folders {
		if filepath.IsAbs(f) {
			out[i] = f
		} else {
			out[i] = filepath.Join(d.Root, f)
		}
	}
	return out
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider          string `yaml:"provider"` // onnx or mock
	ModelPath         string `yaml:"model_path"`
	TokenizerPath     string `yaml:"tokenizer_path"`
	SharedLibraryPath string `yaml:"shared_library_path"`
	OutputName        string `yaml:"output_name"`
	Pooling           string `yaml:"pooling"`
	Dimensions        int    `yaml:"dimensions"`
	MaxTokens         int    `yaml:"max_tokens"`
	CacheSize         int    `yaml:"cache_size"`
}

// RankingConfig holds ranking and deduplication settings.
type RankingConfig struct {
	TopK        int    `yaml:"top_k"`
	DedupKey    string `yaml:"dedup_key"` // topic_question or question
	Concurrency int    `yaml:"concurrency"`
}

// ReportConfig holds report formatting settings.
type ReportConfig struct {
	MaxDuplicateExamples int `yaml:"max_duplicate_examples"`
	QuestionPreview      int `yaml:"question_preview"`
	VectorPreview        int `yaml:"vector_preview"`
}

// StorageConfig holds the persistent embedding cache path. Empty disables it.
type StorageConfig struct {
	CachePath string `yaml:"cache_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
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
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Datasets.Root = expandPath(cfg.Datasets.Root, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)
	cfg.Embedding.SharedLibraryPath = expandPath(cfg.Embedding.SharedLibraryPath, configDir)
	cfg.Storage.CachePath = expandPath(cfg.Storage.CachePath, configDir)

	return &cfg, nil
}

// Default returns a config with defaults applied and paths resolved against dir.
// Used when no config file exists.
func Default(dir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Datasets.Root = expandPath(cfg.Datasets.Root, dir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, dir)
	cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, dir)
	cfg.Storage.CachePath = expandPath(cfg.Storage.CachePath, dir)
	return cfg
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

// expandPath converts a path to absolute. Paths starting with "./" (or ".") are relative
// to configDir; other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." || strings.HasPrefix(path, "../") {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
