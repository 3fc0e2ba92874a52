package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/export"
)

// HandleExport downloads the translations.
//
//	scope=page|full  page exports ?image= or the active image
//	format=txt|json|yaml|parquet
//	title=, line=    templates, defaulting to the export package defaults
//	name=            base of the download file name
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	format, err := export.NormalizeFormat(q.Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	templates := export.Templates{Title: q.Get("title"), Line: q.Get("line")}
	ws := h.store.Snapshot()

	var doc *export.Document
	switch q.Get("scope") {
	case "", "full":
		doc = export.FullDocument(ws, templates)
	case "page":
		imageID := q.Get("image")
		if imageID == "" {
			imageID = ws.Active
		}
		if imageID == "" {
			h.writeError(w, "No image has been selected", http.StatusBadRequest)
			return
		}
		doc, err = export.PageDocument(ws, imageID, templates)
		if errors.Is(err, export.ErrImageNotFound) {
			h.writeError(w, "Image not found", http.StatusNotFound)
			return
		}
	default:
		h.writeError(w, "Invalid scope: must be page or full", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, format); err != nil {
		h.writeError(w, "Failed to export: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := export.SafeFileName(export.FileName(q.Get("name"), time.Now(), format))
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}
