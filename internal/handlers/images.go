package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
)

type imageView struct {
	models.Image
	Zones   int    `json:"zones"`
	Active  bool   `json:"active"`
	DataURL string `json:"data_url"`
}

type zoneView struct {
	Index int `json:"index"`
	models.Zone
	CropURL string `json:"crop_url,omitempty"`
}

func (h *Handler) imageView(img models.Image) imageView {
	active, _ := h.store.Active()
	return imageView{
		Image:   img,
		Zones:   len(h.store.Zones(img.ID)),
		Active:  img.ID == active,
		DataURL: imagePath(img.ID, "data"),
	}
}

func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		all := h.store.Images()
		list := make([]imageView, 0, len(all))
		for _, img := range all {
			list = append(list, h.imageView(img))
		}
		h.writeJSON(w, list)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")

	img, ok := h.getImageOrError(w, imageID)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, h.imageView(img))
	case "PATCH":
		var request struct {
			Alias string `json:"alias"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		h.store.SetAlias(imageID, request.Alias)
		img, _ = h.store.Image(imageID)
		h.writeJSON(w, h.imageView(img))
	case "DELETE":
		h.store.RemoveImage(imageID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleImageData(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	img, ok := h.getImageOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Write(img.Data)
}

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	imageID := r.PathValue("id")
	if !h.store.Select(imageID) {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, h.canvasState())
}

// HandleTranslate sends the whole image for translation and waits for the
// result.
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	imageID := r.PathValue("id")

	created, err := h.orchestrator.TranslateImage(r.Context(), imageID)
	switch {
	case errors.Is(err, translation.ErrImageNotFound):
		h.writeError(w, "Image not found", http.StatusNotFound)
	case errors.Is(err, translation.ErrNoTextFound):
		h.writeJSON(w, map[string]any{
			"created": 0,
			"warning": "No text found in the selected area",
		})
	case err != nil:
		h.writeError(w, "Translation failed: "+err.Error(), http.StatusBadGateway)
	default:
		h.writeJSON(w, map[string]any{
			"created": created,
			"zones":   h.zoneViews(imageID),
		})
	}
}

func (h *Handler) zoneViews(imageID string) []zoneView {
	zones := h.store.Zones(imageID)
	views := make([]zoneView, 0, len(zones))
	for i, z := range zones {
		v := zoneView{Index: i, Zone: z}
		if len(z.CropImage) > 0 {
			v.CropURL = imagePath(imageID, "zones", strconv.Itoa(i), "crop")
		}
		views = append(views, v)
	}
	return views
}

func (h *Handler) HandleZones(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")
	if _, ok := h.getImageOrError(w, imageID); !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, h.zoneViews(imageID))
	case "DELETE":
		h.store.ClearZones(imageID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleZone patches a zone by its order number or removes one by its
// position in the list.
func (h *Handler) HandleZone(w http.ResponseWriter, r *http.Request) {
	imageID := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		h.writeError(w, "Invalid zone number", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "PATCH":
		var patch models.ZonePatch
		if !h.decodeJSON(w, r, &patch) {
			return
		}
		if !h.store.UpdateZone(imageID, n, patch) {
			h.writeError(w, "Zone not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, h.zoneViews(imageID))
	case "DELETE":
		if !h.store.RemoveZone(imageID, n) {
			h.writeError(w, "Zone not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleZoneCrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		h.writeError(w, "Invalid zone number", http.StatusBadRequest)
		return
	}
	zone, ok := h.store.Zone(r.PathValue("id"), index)
	if !ok || len(zone.CropImage) == 0 {
		h.writeError(w, "Zone not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", zone.CropContentType)
	w.Write(zone.CropImage)
}

func (h *Handler) HandleAllZones(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "DELETE":
		h.store.ClearAllZones()
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
