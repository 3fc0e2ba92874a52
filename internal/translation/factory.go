package translation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/cache"
	"github.com/lehigh-university-libraries/scanlate/internal/config"
	"github.com/lehigh-university-libraries/scanlate/internal/gemini"
	"github.com/lehigh-university-libraries/scanlate/internal/ollama"
	"github.com/lehigh-university-libraries/scanlate/internal/openai"
	"github.com/lehigh-university-libraries/scanlate/internal/providers"
)

// New builds the translator selected by cfg, wrapped in a cache when Redis is
// configured. The result implements io.Closer when it holds a cache.
func New(cfg *config.Config) (Translator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var t Translator
	switch cfg.Provider {
	case config.ProviderRemote:
		t = NewRemote(cfg.APIURL)
	default:
		p, err := newProvider(cfg)
		if err != nil {
			return nil, err
		}
		t = NewLLM(p, cfg.Model(), cfg.Temperature)
	}
	slog.Info("Translation backend", "provider", cfg.Provider, "model", cfg.Model())

	if cfg.CacheEnabled() {
		slog.Info("Caching translations", "redis", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		c := cache.New(cfg.Redis)
		if r, ok := c.(*cache.Redis); ok {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			if err := r.Ping(ctx); err != nil {
				slog.Warn("Redis is unreachable, translations are not cached until it is", "redis", cfg.Redis.Addr, "err", err)
			}
			cancel()
		}
		t = NewCaching(t, c)
	}
	return t, nil
}

const pingTimeout = 2 * time.Second

func newProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL)
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIKey), nil
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
