package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/canvas"
	"github.com/lehigh-university-libraries/scanlate/internal/images"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
)

const (
	DefaultViewportWidth  = 800
	DefaultViewportHeight = 600
)

// Handler serves the workspace over HTTP. It owns the selection canvas and
// keeps it showing the store's active image.
type Handler struct {
	store        *storage.TranslationStore
	orchestrator *translation.Orchestrator
	fetcher      *images.Fetcher
	surface      *Surface
	canvas       *canvas.Canvas
	staticDir    string

	mu          sync.Mutex
	canvasImage string
	canvasStamp time.Time
}

func New(store *storage.TranslationStore, orchestrator *translation.Orchestrator) *Handler {
	h := &Handler{
		store:        store,
		orchestrator: orchestrator,
		fetcher:      images.NewFetcher(),
		surface:      NewSurface(DefaultViewportWidth, DefaultViewportHeight),
		staticDir:    "static",
	}
	h.canvas = canvas.New(h.surface, h.handleSelection)
	store.Subscribe(h.handleStoreEvent)
	h.syncCanvas()
	return h
}

// SetStaticDir changes the directory the web interface is served from.
func (h *Handler) SetStaticDir(dir string) {
	h.staticDir = dir
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/images", h.HandleImages)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/images/{id}", h.HandleImage)
	mux.HandleFunc("/api/images/{id}/data", h.HandleImageData)
	mux.HandleFunc("/api/images/{id}/select", h.HandleSelect)
	mux.HandleFunc("/api/images/{id}/translate", h.HandleTranslate)
	mux.HandleFunc("/api/images/{id}/zones", h.HandleZones)
	mux.HandleFunc("/api/images/{id}/zones/{n}", h.HandleZone)
	mux.HandleFunc("/api/images/{id}/zones/{n}/crop", h.HandleZoneCrop)
	mux.HandleFunc("/api/zones", h.HandleAllZones)
	mux.HandleFunc("/api/settings", h.HandleSettings)
	mux.HandleFunc("/api/canvas/viewport", h.HandleViewport)
	mux.HandleFunc("/api/canvas/zoom", h.HandleZoom)
	mux.HandleFunc("/api/canvas/pointer", h.HandlePointer)
	mux.HandleFunc("/api/canvas/wheel", h.HandleWheel)
	mux.HandleFunc("/api/canvas/frame", h.HandleFrame)
	mux.HandleFunc("/api/canvas/state", h.HandleCanvasState)
	mux.HandleFunc("/api/canvas/notices", h.HandleNotices)
	mux.HandleFunc("/api/export", h.HandleExport)
	mux.HandleFunc("/", h.HandleStatic)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message)
	}
	http.Error(w, message, code)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// Image helpers
func (h *Handler) getImageOrError(w http.ResponseWriter, imageID string) (models.Image, bool) {
	img, exists := h.store.Image(imageID)
	if !exists {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return models.Image{}, false
	}
	return img, true
}

func imagePath(imageID string, parts ...string) string {
	p := "/api/images/" + url.PathEscape(imageID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// Canvas wiring

// handleSelection receives finished canvas selections and translates them
// for the active image without blocking the gesture.
func (h *Handler) handleSelection(crop canvas.Crop) {
	imageID, ok := h.store.Active()
	if !ok {
		slog.Warn("Dropping selection without an active image")
		return
	}
	h.orchestrator.Dispatch(imageID, crop)
}

func (h *Handler) handleStoreEvent(ev storage.Event) {
	switch ev.Kind {
	case storage.EventActiveChanged, storage.EventImagesChanged:
		h.syncCanvas()
	}
}

// syncCanvas loads the active image into the canvas when it differs from
// the one shown, including a re-upload under the same name.
func (h *Handler) syncCanvas() {
	imageID, _ := h.store.Active()
	img, ok := h.store.Image(imageID)

	h.mu.Lock()
	unchanged := imageID == h.canvasImage && img.UploadedAt.Equal(h.canvasStamp)
	h.canvasImage = imageID
	h.canvasStamp = img.UploadedAt
	h.mu.Unlock()
	if unchanged {
		return
	}

	if !ok {
		h.canvas.SetImage(nil)
		return
	}
	if err := h.canvas.SetImageData(img.Data); err != nil {
		slog.Error("Unable to load image into canvas", "id", imageID, "err", err)
		h.canvas.SetImage(nil)
		return
	}
	slog.Debug("Canvas showing image", "id", imageID)
}
