// Package export renders translated zones as plain text documents and as
// structured json, yaml or parquet.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/storage"
)

const (
	DefaultTitleTemplate = "Imagen {orderNumber}: {fileName}"
	DefaultLineTemplate  = "- {translatedText}"
)

// ErrImageNotFound is returned by Page for an unknown image.
var ErrImageNotFound = errors.New("image not found")

// Templates control how page titles and zone lines are rendered.
//
// Title placeholders: {fileName}, {imageName}, {aliasName}, {orderNumber}.
// Line placeholders: {orderNumber}, {originalText}, {translatedText}.
type Templates struct {
	Title string
	Line  string
}

func DefaultTemplates() Templates {
	return Templates{Title: DefaultTitleTemplate, Line: DefaultLineTemplate}
}

func (t Templates) withDefaults() Templates {
	if t.Title == "" {
		t.Title = DefaultTitleTemplate
	}
	if t.Line == "" {
		t.Line = DefaultLineTemplate
	}
	return t
}

type Document struct {
	Pages []Page `json:"pages" yaml:"pages"`
}

type Page struct {
	OrderNumber int    `json:"orderNumber" yaml:"orderNumber"`
	ImageName   string `json:"imageName" yaml:"imageName"`
	AliasName   string `json:"aliasName,omitempty" yaml:"aliasName,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Lines       []Line `json:"lines" yaml:"lines"`
}

type Line struct {
	OrderNumber    int    `json:"orderNumber" yaml:"orderNumber"`
	OriginalText   string `json:"originalText" yaml:"originalText"`
	TranslatedText string `json:"translatedText" yaml:"translatedText"`
	Text           string `json:"text" yaml:"text"`
}

// PageDocument exports a single image. Its title always uses order number 1.
func PageDocument(ws storage.Workspace, imageID string, t Templates) (*Document, error) {
	t = t.withDefaults()
	for _, img := range ws.Images {
		if img.ID == imageID {
			return &Document{Pages: []Page{renderPage(t, 1, img.ID, img.Alias, ws)}}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrImageNotFound, imageID)
}

// FullDocument exports every image that has a zone list, in display order.
// Title order numbers count the exported pages only.
func FullDocument(ws storage.Workspace, t Templates) *Document {
	t = t.withDefaults()
	doc := &Document{Pages: []Page{}}
	for _, img := range ws.Images {
		if _, ok := ws.Zones[img.ID]; !ok {
			continue
		}
		doc.Pages = append(doc.Pages, renderPage(t, len(doc.Pages)+1, img.ID, img.Alias, ws))
	}
	return doc
}

func renderPage(t Templates, orderNumber int, imageID, alias string, ws storage.Workspace) Page {
	title := strings.NewReplacer(
		"{fileName}", imageID,
		"{imageName}", imageID,
		"{aliasName}", alias,
		"{orderNumber}", strconv.Itoa(orderNumber),
	).Replace(t.Title)

	page := Page{
		OrderNumber: orderNumber,
		ImageName:   imageID,
		AliasName:   alias,
		Title:       title,
		Lines:       []Line{},
	}
	for _, z := range ws.Zones[imageID] {
		text := strings.NewReplacer(
			"{orderNumber}", strconv.Itoa(z.Order),
			"{originalText}", z.OriginalText,
			"{translatedText}", z.TranslatedText,
		).Replace(t.Line)
		page.Lines = append(page.Lines, Line{
			OrderNumber:    z.Order,
			OriginalText:   z.OriginalText,
			TranslatedText: z.TranslatedText,
			Text:           text,
		})
	}
	return page
}

// Text renders the document as "title\n\n", one "line\n" per zone, then
// "\n\n" for each page.
func (d *Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		b.WriteString(p.Title)
		b.WriteString("\n\n")
		for _, l := range p.Lines {
			b.WriteString(l.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// FileName returns "<base> - DD/MM/YYYY HH:MM.scanlate.<ext>", with base
// defaulting to "translation".
func FileName(base string, now time.Time, format string) string {
	if base == "" {
		base = "translation"
	}
	ext := FormatText
	if f, err := NormalizeFormat(format); err == nil {
		ext = f
	}
	return fmt.Sprintf("%s - %s.scanlate.%s", base, now.Format("02/01/2006 15:04"), ext)
}

// SafeFileName replaces the path separators and colons FileName produces.
func SafeFileName(name string) string {
	return strings.NewReplacer("/", "-", ":", "-", "\\", "-").Replace(name)
}
