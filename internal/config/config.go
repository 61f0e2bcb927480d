// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.studyowl/config.yaml, or ./config.yaml)
//  3. Default values
//
// Main categories:
//   - AI: provider, model name, embedder model
//   - Chunking: chunk size and overlap for course document processing
//   - Retrieval: max search results, per-session history window
//   - Storage: persistent vector store path, course documents directory
//
// All values are fixed at process start: Load returns one immutable Config
// that is passed into each component at construction.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for Go-idiomatic checking with errors.Is().
var (
	// ErrInvalidChunkSize indicates chunk_size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates chunk_overlap is negative or >= chunk_size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxResults indicates max_results is out of range.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidMaxHistory indicates max_history is out of range.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbedRate indicates embed_rate_limit is not positive.
	ErrInvalidEmbedRate = errors.New("invalid embed rate limit")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// Defaults for the retrieval pipeline. Chunking defaults follow the
// course document corpus: 800-character chunks with a 100-character
// sentence-boundary overlap keep each chunk within one embedding call
// while preserving local context across chunk edges.
const (
	DefaultChunkSize      = 800
	DefaultChunkOverlap   = 100
	DefaultMaxResults     = 5
	DefaultMaxHistory     = 2
	DefaultEmbedRateLimit = 10.0

	// MaxAllowedResults caps max_results to keep tool output bounded.
	MaxAllowedResults = 20

	// MaxAllowedHistory caps max_history to bound prompt size.
	MaxAllowedHistory = 50
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider"`       // "gemini" (default), "ollama"
	ModelName     string `mapstructure:"model_name"`     // e.g. "gemini-2.5-flash"
	EmbedderModel string `mapstructure:"embedder_model"` // e.g. "text-embedding-004"
	OllamaHost    string `mapstructure:"ollama_host"`    // only used when provider is "ollama"

	// Document chunking configuration
	ChunkSize    int `mapstructure:"chunk_size"`    // maximum characters per chunk
	ChunkOverlap int `mapstructure:"chunk_overlap"` // characters carried over between chunks

	// Retrieval and conversation configuration
	MaxResults int `mapstructure:"max_results"` // maximum search hits per tool call
	MaxHistory int `mapstructure:"max_history"` // exchanges kept per session (sliding window)

	// Storage configuration
	StoragePath string `mapstructure:"storage_path"` // vector store directory ("" = in-memory)
	DocsDir     string `mapstructure:"docs_dir"`     // course documents ingested at startup

	// EmbedRateLimit paces embedding calls during ingestion (requests/sec).
	EmbedRateLimit float64 `mapstructure:"embed_rate_limit"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".studyowl")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast on invalid values.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", "text-embedding-004")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("max_history", DefaultMaxHistory)

	v.SetDefault("storage_path", filepath.Join(configDir, "db"))
	v.SetDefault("docs_dir", "./docs")

	v.SetDefault("embed_rate_limit", DefaultEmbedRateLimit)
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via Viper.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "STUDYOWL_PROVIDER")
	mustBind("model_name", "STUDYOWL_MODEL_NAME")
	mustBind("embedder_model", "STUDYOWL_EMBEDDER_MODEL")
	mustBind("ollama_host", "STUDYOWL_OLLAMA_HOST")
	mustBind("storage_path", "STUDYOWL_STORAGE_PATH")
	mustBind("docs_dir", "STUDYOWL_DOCS_DIR")
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}
