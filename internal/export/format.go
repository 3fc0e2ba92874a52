package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

const (
	FormatText    = "txt"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatParquet = "parquet"
)

// ErrUnsupportedFormat is returned for export formats other than txt, json,
// yaml and parquet.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Row is the parquet schema: one row per zone.
type Row struct {
	Page           int    `parquet:"page"`
	ImageName      string `parquet:"image_name"`
	AliasName      string `parquet:"alias_name"`
	Title          string `parquet:"title"`
	OrderNumber    int    `parquet:"order_number"`
	OriginalText   string `parquet:"original_text"`
	TranslatedText string `parquet:"translated_text"`
	Text           string `parquet:"text"`
}

func NormalizeFormat(format string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "", "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Rows flattens the document for tabular output.
func (d *Document) Rows() []Row {
	var rows []Row
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			rows = append(rows, Row{
				Page:           p.OrderNumber,
				ImageName:      p.ImageName,
				AliasName:      p.AliasName,
				Title:          p.Title,
				OrderNumber:    l.OrderNumber,
				OriginalText:   l.OriginalText,
				TranslatedText: l.TranslatedText,
				Text:           l.Text,
			})
		}
	}
	return rows
}

// Write encodes d to w in the given format.
func Write(w io.Writer, d *Document, format string) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	case FormatParquet:
		writer := parquet.NewGenericWriter[Row](w)
		if _, err := writer.Write(d.Rows()); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to close parquet writer: %w", err)
		}
	default:
		if _, err := io.WriteString(w, d.Text()); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
	}
	return nil
}
