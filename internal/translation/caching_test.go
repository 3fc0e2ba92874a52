package translation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Close() error { return nil }

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	resp  *Response
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pairs(texts ...string) *Response {
	resp := &Response{}
	for i := 0; i+1 < len(texts); i += 2 {
		resp.Data = append(resp.Data, models.TextPair{OriginalText: texts[i], TranslatedText: texts[i+1]})
	}
	return resp
}

func TestCacheKey(t *testing.T) {
	req := Request{ImageData: "data:image/png;base64,AAAA", Settings: models.DefaultSettings()}

	if CacheKey(req) != CacheKey(req) {
		t.Error("Expected the key to be stable")
	}

	other := req
	other.ToLanguage = "en"
	if CacheKey(req) == CacheKey(other) {
		t.Error("Expected settings to change the key")
	}

	other = req
	other.ImageData = "data:image/png;base64,AAAB"
	if CacheKey(req) == CacheKey(other) {
		t.Error("Expected image data to change the key")
	}
}

func TestCachingTranslator(t *testing.T) {
	next := &fakeTranslator{resp: pairs("a", "b")}
	translator := NewCaching(next, newMemoryCache())
	req := Request{ImageData: "x", Settings: models.DefaultSettings()}

	for i := 0; i < 3; i++ {
		resp, err := translator.Translate(context.Background(), req)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(resp.Data) != 1 || resp.Data[0].TranslatedText != "b" {
			t.Errorf("Unexpected response %+v", resp.Data)
		}
	}
	if next.callCount() != 1 {
		t.Errorf("Expected 1 backend call, got %d", next.callCount())
	}
}

func TestCachingTranslatorSkipsEmptyResults(t *testing.T) {
	next := &fakeTranslator{resp: &Response{}}
	translator := NewCaching(next, newMemoryCache())

	translator.Translate(context.Background(), Request{ImageData: "x"})
	translator.Translate(context.Background(), Request{ImageData: "x"})
	if next.callCount() != 2 {
		t.Errorf("Expected empty results to be retried, got %d calls", next.callCount())
	}
}

func TestCachingTranslatorFailures(t *testing.T) {
	c := newMemoryCache()
	c.getErr = errors.New("connection refused")
	next := &fakeTranslator{resp: pairs("a", "b")}

	resp, err := NewCaching(next, c).Translate(context.Background(), Request{ImageData: "x"})
	if err != nil || len(resp.Data) != 1 {
		t.Errorf("Expected a cache failure to fall through, got %v %v", resp, err)
	}

	next = &fakeTranslator{err: errors.New("boom")}
	if _, err := NewCaching(next, newMemoryCache()).Translate(context.Background(), Request{}); err == nil {
		t.Error("Expected the backend error to be returned")
	}
}
