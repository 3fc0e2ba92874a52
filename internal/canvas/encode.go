package canvas

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for encodings other than png, jpeg and webp.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWEBP = "webp"
)

// Encoder turns a raster into a self-contained image blob.
type Encoder struct {
	Format  string
	Quality int // jpeg/webp quality, 1-100
}

// DefaultEncoder encodes crops as PNG, the same as a browser canvas
// toDataURL() without arguments.
func DefaultEncoder() Encoder {
	return Encoder{Format: FormatPNG, Quality: 92}
}

// NormalizeFormat maps file extensions and MIME subtypes to a Format constant.
func NormalizeFormat(format string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "", "png", "image/png":
		return FormatPNG, nil
	case "jpg", "jpeg", "image/jpeg", "image/jpg":
		return FormatJPEG, nil
	case "webp", "image/webp":
		return FormatWEBP, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Encode returns the encoded bytes and their content type.
func (e Encoder) Encode(img image.Image) ([]byte, string, error) {
	format, err := NormalizeFormat(e.Format)
	if err != nil {
		return nil, "", err
	}
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = 92
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), "image/" + format, nil
}

// Decode decodes an uploaded image, applying EXIF orientation. WEBP data the
// registered decoders reject is retried with libwebp.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	if webpImg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return webpImg, nil
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}

// DataURL embeds data in a data: URL so it can be previewed or resent as is.
func DataURL(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "image/png"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL is the inverse of DataURL. Plain base64 without a data: prefix
// is accepted with an empty content type.
func ParseDataURL(s string) ([]byte, string, error) {
	contentType := ""
	payload := s
	if strings.HasPrefix(s, "data:") {
		meta, rest, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("data URL is not base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return data, contentType, nil
}
