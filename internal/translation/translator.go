// Package translation sends image crops to a translation backend and turns
// the results into zones.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
)

var (
	// ErrNoTextFound is returned when the backend found nothing to translate.
	ErrNoTextFound = errors.New("no text found in the selected area")
	// ErrImageNotFound is returned for operations on an unknown image id.
	ErrImageNotFound = errors.New("image not found")
)

// Request is the body sent to a translation backend. ImageData is a data: URL.
type Request struct {
	ImageData string `json:"imageData"`
	models.Settings
}

// Response holds the (original, translated) pairs a backend found, in reading
// order.
type Response struct {
	Data []models.TextPair `json:"data"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (*Response, error)
}

// decodeResponse parses a {data:[...]} document. Well-formed JSON of any
// other shape yields an empty response.
func decodeResponse(raw []byte) (*Response, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("failed to parse translation response: invalid JSON")
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Warn("Unexpected translation response shape", "err", err)
		return &Response{}, nil
	}
	return &resp, nil
}
