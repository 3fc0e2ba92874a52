package translation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lehigh-university-libraries/scanlate/internal/cache"
	"github.com/lehigh-university-libraries/scanlate/internal/utils"
)

// CachingTranslator remembers non-empty responses by image and settings.
// Cache failures are logged and fall through to the wrapped translator.
type CachingTranslator struct {
	next  Translator
	cache cache.Cache
}

func NewCaching(next Translator, c cache.Cache) *CachingTranslator {
	return &CachingTranslator{next: next, cache: c}
}

// CacheKey identifies a request by its image data and settings.
func CacheKey(req Request) string {
	settings, _ := json.Marshal(req.Settings)
	return "translation:" + utils.CalculateDataMD5([]byte(req.ImageData), settings)
}

func (c *CachingTranslator) Translate(ctx context.Context, req Request) (*Response, error) {
	key := CacheKey(req)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Unable to read translation cache", "key", key, "err", err)
	} else if ok {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			slog.Debug("Translation cache hit", "key", key)
			return &resp, nil
		}
		slog.Warn("Discarding corrupt cache entry", "key", key)
	}

	resp, err := c.next.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return resp, nil
	}

	data, err = json.Marshal(resp)
	if err != nil {
		slog.Warn("Unable to encode translation for cache", "err", err)
		return resp, nil
	}
	if err := c.cache.Set(ctx, key, data); err != nil {
		slog.Warn("Unable to write translation cache", "key", key, "err", err)
	}
	return resp, nil
}

func (c *CachingTranslator) Close() error {
	return c.cache.Close()
}
