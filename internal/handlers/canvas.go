package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/scanlate/internal/canvas"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
)

const maxViewport = 8192

type canvasState struct {
	canvas.State
	ActiveImage string               `json:"active_image"`
	Zoom        float64              `json:"zoom"`
	Pending     int                  `json:"pending_translations"`
	Notices     []translation.Notice `json:"notices"`
}

func (h *Handler) canvasState() canvasState {
	active, _ := h.store.Active()
	return canvasState{
		State:       h.canvas.State(),
		ActiveImage: active,
		Zoom:        h.canvas.Zoom(),
		Pending:     h.orchestrator.Pending(),
		Notices:     h.orchestrator.Notices(),
	}
}

func (h *Handler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PUT" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Width <= 0 || request.Height <= 0 || request.Width > maxViewport || request.Height > maxViewport {
		h.writeError(w, fmt.Sprintf("Viewport must be between 1 and %d pixels on each side", maxViewport), http.StatusBadRequest)
		return
	}

	h.surface.Resize(request.Width, request.Height)
	h.canvas.Redraw()
	h.writeJSON(w, h.canvasState())
}

// ParseZoom accepts a factor (0.5), a numeric string ("0.5") or a
// percentage ("50%").
func ParseZoom(raw json.RawMessage) (float64, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("zoom must be a number or a percentage")
	}
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid zoom percentage %q", s)
		}
		return v / 100, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid zoom %q", s)
	}
	return v, nil
}

func (h *Handler) HandleZoom(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, map[string]float64{"zoom": h.canvas.Zoom()})
	case "PUT":
		var request struct {
			Zoom json.RawMessage `json:"zoom"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		zoom, err := ParseZoom(request.Zoom)
		if err == nil {
			err = h.canvas.SetZoom(zoom)
		}
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeJSON(w, h.canvasState())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePointer feeds a pointer event into the canvas. Type is one of down,
// move, up or leave; button follows MouseEvent.button.
func (h *Handler) HandlePointer(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var event struct {
		Type   string  `json:"type"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Button int     `json:"button"`
	}
	if !h.decodeJSON(w, r, &event) {
		return
	}

	p := canvas.Point{X: event.X, Y: event.Y}
	switch event.Type {
	case "down":
		h.canvas.GestureStart(p, canvas.Button(event.Button))
	case "move":
		h.canvas.GestureMove(p)
	case "up":
		h.canvas.GestureEnd()
	case "leave":
		h.canvas.GestureCancel()
	default:
		h.writeError(w, "Invalid pointer event type: "+event.Type, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.canvasState())
}

func (h *Handler) HandleWheel(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var event struct {
		DeltaY float64 `json:"deltaY"`
	}
	if !h.decodeJSON(w, r, &event) {
		return
	}
	h.canvas.Wheel(event.DeltaY)
	h.writeJSON(w, h.canvasState())
}

// HandleFrame returns the current frame, PNG unless ?format= asks for jpeg
// or webp.
func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame := h.surface.Frame()
	if frame == nil {
		h.canvas.Redraw()
		frame = h.surface.Frame()
	}
	if frame == nil {
		h.writeError(w, "No frame rendered", http.StatusNotFound)
		return
	}

	format, err := canvas.NormalizeFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, contentType, err := canvas.Encoder{Format: format}.Encode(frame)
	if err != nil {
		h.writeError(w, "Failed to encode frame: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *Handler) HandleCanvasState(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.canvasState())
}

// HandleNotices lists the notices of dispatched selections; DELETE dismisses
// them.
func (h *Handler) HandleNotices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		notices := h.orchestrator.Notices()
		if notices == nil {
			notices = []translation.Notice{}
		}
		h.writeJSON(w, notices)
	case "DELETE":
		h.orchestrator.ClearNotices()
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
