package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
)

// Fetcher downloads page images from URLs
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads imageURL and validates it like a file upload. The upload is
// named after the last path segment of the URL.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (models.Upload, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return models.Upload{}, fmt.Errorf("invalid image URL %q", imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to create new request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Upload{}, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	// read one byte past the limit so oversize files are detected
	imageData, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read image data: %w", err)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		filename = "image.jpg"
	}

	upload, err := NewUpload(filename, resp.Header.Get("Content-Type"), imageData)
	if err != nil {
		return models.Upload{}, err
	}

	slog.Info("Downloaded image", "url", imageURL, "name", filename, "bytes", len(imageData))
	return upload, nil
}
