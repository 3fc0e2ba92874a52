package providers

import (
	"context"
)

// Image is an encoded picture attached to a prompt
type Image struct {
	Data        []byte
	ContentType string
}

// Config represents the configuration for a vision LLM call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
}

// Provider defines the interface for a vision LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
