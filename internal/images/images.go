// Package images validates uploaded page images and downloads them from URLs.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
	_ "golang.org/x/image/webp"
)

const (
	// MaxFileSize is the largest accepted upload, 8 MiB.
	MaxFileSize = 8 << 20
	// MaxFiles is the most files accepted in one upload request.
	MaxFiles = 100
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrFileTooLarge    = errors.New("file too large")
)

// AcceptedTypes are the MIME types an upload may declare.
var AcceptedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// ContentType returns the declared type without parameters, sniffing data
// when nothing useful was declared.
func ContentType(declared string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return ct
}

// Validate checks the size and type limits of a single upload.
func Validate(name, contentType string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes (max 8MB)", ErrFileTooLarge, name, size)
	}
	if !slices.Contains(AcceptedTypes, contentType) {
		return fmt.Errorf("%w: %s is %s (must be jpg, jpeg, png or webp)", ErrUnsupportedType, name, contentType)
	}
	return nil
}

// NewUpload validates data and reads its dimensions.
func NewUpload(name, declaredType string, data []byte) (models.Upload, error) {
	contentType := ContentType(declaredType, data)
	if err := Validate(name, contentType, int64(len(data))); err != nil {
		return models.Upload{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read image dimensions of %s: %w", name, err)
	}

	return models.Upload{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
