// Package config gathers the environment driven settings of scanlate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ProviderRemote = "remote"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Provider selects the translation backend.
	Provider string
	// APIURL is the base URL of the remote translation service.
	APIURL string

	OllamaURL   string
	OllamaModel string
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string
	Temperature float64

	Redis RedisConfig
}

// RedisConfig enables the translation cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func Default() *Config {
	return &Config{
		Provider:    ProviderRemote,
		APIURL:      "http://localhost:8000",
		OllamaURL:   "http://localhost:11434",
		OllamaModel: "mistral-small3.2:24b",
		OpenAIModel: "gpt-4o",
		GeminiModel: "gemini-1.5-flash",
		Temperature: 0.1,
		Redis: RedisConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// FromEnv returns the defaults overridden by any variables set in the
// environment.
func FromEnv() (*Config, error) {
	cfg := Default()

	setString(&cfg.Provider, "SCANLATE_PROVIDER")
	setString(&cfg.APIURL, "SCANLATE_API_URL")
	setString(&cfg.OllamaURL, "OLLAMA_HOST")
	setString(&cfg.OllamaURL, "OLLAMA_URL")
	setString(&cfg.OllamaModel, "OLLAMA_MODEL")
	setString(&cfg.OpenAIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIModel, "OPENAI_MODEL")
	setString(&cfg.GeminiKey, "GEMINI_API_KEY")
	setString(&cfg.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("SCANLATE_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SCANLATE_CACHE_TTL: %w", err)
		}
		cfg.Redis.TTL = ttl
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Model returns the model name of the selected provider. The remote service
// picks its own model.
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderOllama:
		return c.OllamaModel
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderGemini:
		return c.GeminiModel
	default:
		return ""
	}
}

// CacheEnabled reports whether translations are cached in Redis.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderRemote:
		if c.APIURL == "" {
			return fmt.Errorf("SCANLATE_API_URL is required for the remote provider")
		}
	case ProviderOllama:
		if c.OllamaURL == "" || c.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_URL and OLLAMA_MODEL are required for the ollama provider")
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}
	return nil
}
