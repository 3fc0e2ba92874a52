package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/scanlate/internal/providers"
	"github.com/ollama/ollama/api"
)

// DefaultURL is used when neither OLLAMA_URL nor OLLAMA_HOST is set
const DefaultURL = "http://localhost:11434"

// Ollama is a provider for Ollama
type Ollama struct {
	client *api.Client
}

// New returns a new Ollama provider talking to baseURL. An empty baseURL
// falls back to OLLAMA_URL, then OLLAMA_HOST, then DefaultURL.
func New(baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_URL")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama URL: %w", err)
	}
	// the api client adds /api/... itself
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &Ollama{client: api.NewClient(base, http.DefaultClient)}, nil
}

// ExtractText sends the prompt and images to the chat endpoint
func (o *Ollama) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	images := make([]api.ImageData, 0, len(config.Images))
	for _, img := range config.Images {
		images = append(images, api.ImageData(img.Data))
	}

	stream := false
	req := &api.ChatRequest{
		Model: config.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: config.Prompt,
				Images:  images,
			},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": config.Temperature,
		},
	}

	var content strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}

	return content.String(), nil
}
