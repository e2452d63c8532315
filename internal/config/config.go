// Package config provides application configuration with layered sources.
//
// Priority (highest to lowest):
//  1. Environment variables (DIPA_ prefix)
//  2. Config file (./dipa.yaml or $DIPA_CONFIG)
//  3. Defaults
//
// Sensitive values (API keys) are only read, never logged.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingOpenAIKey indicates the OpenAI API key is not set.
	ErrMissingOpenAIKey = errors.New("missing OpenAI API key")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidMaxSteps indicates the agent iteration budget is out of range.
	ErrInvalidMaxSteps = errors.New("invalid max steps")

	// ErrInvalidTemperature indicates the sampling temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")
)

// Defaults. Chunk size and overlap follow the retrieval granularity the
// assistant was tuned with; overlap must stay below chunk size so no
// boundary loses context.
const (
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 4
	DefaultMaxSteps       = 8
	DefaultLanguage       = "Korean"
	DefaultHTTPAddr       = ":8080"
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
)

// Config stores application configuration.
type Config struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	SerpAPIKey   string `mapstructure:"serpapi_api_key"`

	ChatModel      string  `mapstructure:"chat_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	TopK         int `mapstructure:"top_k"`
	MaxSteps     int `mapstructure:"max_steps"`

	// Language the assistant must answer in.
	Language string `mapstructure:"language"`

	// DocumentsDir, when set, is watched for PDF drops that trigger
	// index rebuilds. Empty disables the watcher.
	DocumentsDir string `mapstructure:"documents_dir"`

	HTTPAddr       string  `mapstructure:"http_addr"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Load reads configuration from file, environment, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("rate_limit_rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit_burst", DefaultRateLimitBurst)

	v.SetEnvPrefix("DIPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("DIPA_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dipa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Fall back to the conventional provider variables when the
	// prefixed ones are not set.
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.SerpAPIKey == "" {
		cfg.SerpAPIKey = os.Getenv("SERPAPI_API_KEY")
	}

	return &cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return ErrMissingOpenAIKey
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.TopK <= 0 || c.TopK > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopK, c.TopK)
	}
	if c.MaxSteps <= 0 || c.MaxSteps > 64 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSteps, c.MaxSteps)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: got %g", ErrInvalidTemperature, c.Temperature)
	}
	return nil
}

// WebSearchEnabled reports whether the search provider is configured.
func (c *Config) WebSearchEnabled() bool {
	return c.SerpAPIKey != ""
}
