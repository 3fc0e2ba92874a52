package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDirection is returned when a reading direction is not one of the
// supported values.
var ErrInvalidDirection = errors.New("invalid reading direction")

// Image represents an uploaded page image
type Image struct {
	ID           string    `json:"id"` // original filename
	Data         []byte    `json:"-"`
	ContentType  string    `json:"content_type"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Alias        string    `json:"alias,omitempty"`
	DisplayOrder int       `json:"display_order"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Upload is a file handed to the store before it becomes an Image
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Zone is one translated text region of an image
type Zone struct {
	Order           int    `json:"order"`
	CropImage       []byte `json:"-"`
	CropContentType string `json:"crop_content_type,omitempty"`
	OriginalText    string `json:"original_text"`
	TranslatedText  string `json:"translated_text"`
	Translating     bool   `json:"translating"`
	Translated      bool   `json:"translated"`
}

// ZonePatch carries the fields of a manual correction. Nil fields are left
// untouched.
type ZonePatch struct {
	OriginalText   *string `json:"original_text,omitempty"`
	TranslatedText *string `json:"translated_text,omitempty"`
	Translating    *bool   `json:"translating,omitempty"`
	Translated     *bool   `json:"translated,omitempty"`
}

// Apply merges the non-nil fields of p into z.
func (p ZonePatch) Apply(z *Zone) {
	if p.OriginalText != nil {
		z.OriginalText = *p.OriginalText
	}
	if p.TranslatedText != nil {
		z.TranslatedText = *p.TranslatedText
	}
	if p.Translating != nil {
		z.Translating = *p.Translating
	}
	if p.Translated != nil {
		z.Translated = *p.Translated
	}
}

// TextPair is a single (original, translated) result from a translator
type TextPair struct {
	OriginalText   string `json:"originalText" yaml:"originalText"`
	TranslatedText string `json:"translatedText" yaml:"translatedText"`
}

const (
	LeftToRight = "LR"
	RightToLeft = "RL"
	TopToBottom = "TB"
	BottomToTop = "BT"
)

// Settings holds the translation options sent with every request
type Settings struct {
	FromLanguage               string `json:"fromLanguage"`
	ToLanguage                 string `json:"toLanguage"`
	HorizontalReadingDirection string `json:"horizontalReadingDirection"`
	VerticalReadingDirection   string `json:"verticalReadingDirection"`
	KeepContext                bool   `json:"keepContext"`
	SeparateDialogs            bool   `json:"separateDialogs"`
}

// DefaultSettings returns the settings a fresh workspace starts with
func DefaultSettings() Settings {
	return Settings{
		FromLanguage:               "ja",
		ToLanguage:                 "es",
		HorizontalReadingDirection: RightToLeft,
		VerticalReadingDirection:   TopToBottom,
		KeepContext:                true,
		SeparateDialogs:            true,
	}
}

// Validate checks the reading directions and languages
func (s Settings) Validate() error {
	if s.FromLanguage == "" || s.ToLanguage == "" {
		return fmt.Errorf("fromLanguage and toLanguage are required")
	}
	if s.HorizontalReadingDirection != LeftToRight && s.HorizontalReadingDirection != RightToLeft {
		return fmt.Errorf("%w: horizontal %q (must be LR or RL)", ErrInvalidDirection, s.HorizontalReadingDirection)
	}
	if s.VerticalReadingDirection != TopToBottom && s.VerticalReadingDirection != BottomToTop {
		return fmt.Errorf("%w: vertical %q (must be TB or BT)", ErrInvalidDirection, s.VerticalReadingDirection)
	}
	return nil
}
