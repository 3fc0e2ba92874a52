package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/scanlate/internal/canvas"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/providers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LLMTranslator reads and translates text with a vision model.
type LLMTranslator struct {
	provider    providers.Provider
	model       string
	temperature float64
}

func NewLLM(provider providers.Provider, model string, temperature float64) *LLMTranslator {
	return &LLMTranslator{
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

func (l *LLMTranslator) Translate(ctx context.Context, req Request) (*Response, error) {
	data, contentType, err := canvas.ParseDataURL(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	text, err := l.provider.ExtractText(ctx, providers.Config{
		Model:       l.model,
		Temperature: l.temperature,
		Prompt:      BuildPrompt(req.Settings),
		Images:      []providers.Image{{Data: data, ContentType: contentType}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get model response: %w", err)
	}

	slog.Debug("Model response", "model", l.model, "response", text)
	return &Response{Data: parseModelOutput(text)}, nil
}

// BuildPrompt describes the settings to the model and asks for the same
// {data:[...]} document the remote service returns.
func BuildPrompt(s models.Settings) string {
	horizontal := "right to left"
	if s.HorizontalReadingDirection == models.LeftToRight {
		horizontal = "left to right"
	}
	vertical := "top to bottom"
	if s.VerticalReadingDirection == models.BottomToTop {
		vertical = "bottom to top"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The image is a region of a scanned comic page. Read all text written in %s and translate it into %s.\n",
		languageName(s.FromLanguage), languageName(s.ToLanguage))
	fmt.Fprintf(&b, "Read the text %s and %s.\n", horizontal, vertical)
	if s.SeparateDialogs {
		b.WriteString("Return every speech bubble or text block as its own entry.\n")
	} else {
		b.WriteString("Join all of the text into a single entry.\n")
	}
	if s.KeepContext {
		b.WriteString("Translate the entries as one conversation so context carries over between them.\n")
	} else {
		b.WriteString("Translate every entry on its own.\n")
	}
	b.WriteString(`Respond only with JSON of the form {"data":[{"originalText":"...","translatedText":"..."}]}. ` +
		`Respond with {"data":[]} if there is no text.`)
	return b.String()
}

func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// parseModelOutput accepts the {data:[...]} document, optionally wrapped in
// a markdown code fence, or a bare array of pairs. Anything else yields no
// pairs.
func parseModelOutput(text string) []models.TextPair {
	cleaned := stripCodeFences(text)

	var resp Response
	if err := json.Unmarshal([]byte(cleaned), &resp); err == nil {
		return resp.Data
	}
	var pairs []models.TextPair
	if err := json.Unmarshal([]byte(cleaned), &pairs); err == nil {
		return pairs
	}

	slog.Warn("Unable to parse model output", "output", text)
	return nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening fence along with its language tag
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
