package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type       string                `yaml:"type"`
	Dimensions int                   `yaml:"dimensions"`
	OpenAI     *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// OpenAIAnswererConfig holds configuration for the chat completions answerer.
type OpenAIAnswererConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// AnswererConfig selects and configures answer synthesis.
type AnswererConfig struct {
	Type         string                `yaml:"type"`
	MaxSentences int                   `yaml:"max_sentences"`
	OpenAI       *OpenAIAnswererConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how page text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// LimitsConfig bounds request and store sizes.
type LimitsConfig struct {
	MaxResults           int   `yaml:"max_results"`
	MaxContextLength     int   `yaml:"max_context_length"`
	MaxFileSize          int64 `yaml:"max_file_size"`
	MaxQuestionLength    int   `yaml:"max_question_length"`
	MaxPDFPages          int   `yaml:"max_pdf_pages"`
	MaxChunksPerDocument int   `yaml:"max_chunks_per_document"`
	MaxTotalChunks       int   `yaml:"max_total_chunks"`
}

// StorageConfig locates persisted data.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// CatalogConfig configures the SQLite document catalog.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RateLimitConfig limits uploads and questions, e.g. "100/hour".
type RateLimitConfig struct {
	Requests string `yaml:"requests"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Inbox      string `yaml:"inbox"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Answerer  AnswererConfig  `yaml:"answerer"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Limits    LimitsConfig    `yaml:"limits"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// VectorDir is the directory holding the index, chunks and chunk metadata.
func (c *AppConfig) VectorDir() string { return filepath.Join(c.Storage.DataDir, "vector_db") }

// DocumentsPath is the file holding per-document metadata.
func (c *AppConfig) DocumentsPath() string { return filepath.Join(c.Storage.DataDir, "metadata.json") }

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	positive := []struct {
		name  string
		value int64
	}{
		{"chunker.chunk_size", int64(c.Chunker.ChunkSize)},
		{"limits.max_results", int64(c.Limits.MaxResults)},
		{"limits.max_context_length", int64(c.Limits.MaxContextLength)},
		{"limits.max_file_size", c.Limits.MaxFileSize},
		{"limits.max_question_length", int64(c.Limits.MaxQuestionLength)},
		{"limits.max_pdf_pages", int64(c.Limits.MaxPDFPages)},
		{"limits.max_chunks_per_document", int64(c.Limits.MaxChunksPerDocument)},
		{"limits.max_total_chunks", int64(c.Limits.MaxTotalChunks)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", p.name, p.value)
		}
	}
	if c.Chunker.ChunkOverlap < 0 {
		return fmt.Errorf("config: chunker.chunk_overlap must not be negative, got %d", c.Chunker.ChunkOverlap)
	}
	switch c.Embedder.Type {
	case "openai", "hashing":
	default:
		return fmt.Errorf("config: unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Answerer.Type {
	case "openai", "extractive":
	default:
		return fmt.Errorf("config: unknown answerer type %q", c.Answerer.Type)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	// keys missing from the file keep their default values
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfqa", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	return cfg
}

// defaultConfig holds the defaults that do not depend on other settings;
// applyConfigDefaults fills in the rest.
func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder: EmbedderConfig{Type: "openai"},
		Answerer: AnswererConfig{Type: "openai", MaxSentences: 3},
		Chunker:  ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Limits: LimitsConfig{
			MaxResults:           5,
			MaxContextLength:     4000,
			MaxFileSize:          50 * 1024 * 1024,
			MaxQuestionLength:    1000,
			MaxPDFPages:          500,
			MaxChunksPerDocument: 1000,
			MaxTotalChunks:       10000,
		},
		Storage:   StorageConfig{DataDir: "data"},
		RateLimit: RateLimitConfig{Requests: "100/hour"},
		Watch:     WatchConfig{DebounceMS: 500},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Dimensions == 0 {
		if cfg.Embedder.Type == "hashing" {
			cfg.Embedder.Dimensions = 512
		} else {
			cfg.Embedder.Dimensions = 1536
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-ada-002"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 100
		}
	}

	if cfg.Answerer.Type == "" {
		cfg.Answerer.Type = "openai"
	}
	if cfg.Answerer.MaxSentences == 0 {
		cfg.Answerer.MaxSentences = 3
	}
	if cfg.Answerer.Type == "openai" {
		if cfg.Answerer.OpenAI == nil {
			cfg.Answerer.OpenAI = &OpenAIAnswererConfig{Temperature: 0.1}
		}
		if cfg.Answerer.OpenAI.BaseURL == "" {
			cfg.Answerer.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Answerer.OpenAI.APIKeyEnv == "" {
			cfg.Answerer.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Answerer.OpenAI.Model == "" {
			cfg.Answerer.OpenAI.Model = "gpt-3.5-turbo"
		}
		if cfg.Answerer.OpenAI.MaxTokens == 0 {
			cfg.Answerer.OpenAI.MaxTokens = 1000
		}
		if cfg.Answerer.OpenAI.TimeoutSecs == 0 {
			cfg.Answerer.OpenAI.TimeoutSecs = 60
		}
	}

	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}

	l := &cfg.Limits
	if l.MaxResults == 0 {
		l.MaxResults = 5
	}
	if l.MaxContextLength == 0 {
		l.MaxContextLength = 4000
	}
	if l.MaxFileSize == 0 {
		l.MaxFileSize = 50 * 1024 * 1024
	}
	if l.MaxQuestionLength == 0 {
		l.MaxQuestionLength = 1000
	}
	if l.MaxPDFPages == 0 {
		l.MaxPDFPages = 500
	}
	if l.MaxChunksPerDocument == 0 {
		l.MaxChunksPerDocument = 1000
	}
	if l.MaxTotalChunks == 0 {
		l.MaxTotalChunks = 10000
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(cfg.Storage.DataDir, "catalog.db")
	}
	if cfg.RateLimit.Requests == "" {
		cfg.RateLimit.Requests = "100/hour"
	}
	if cfg.Watch.Inbox == "" {
		cfg.Watch.Inbox = filepath.Join(cfg.Storage.DataDir, "inbox")
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
