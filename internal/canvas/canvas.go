// Package canvas implements the selection canvas: it renders the active image
// under a zoom and vertical scroll transform, turns press-drag-release
// gestures into rectangular selections and extracts the selected pixels as an
// encoded image.
//
// The canvas is headless. A Surface reports the viewport size and receives
// every redrawn frame, so the same state machine serves an HTTP front end, a
// CLI or a test.
package canvas

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"sync"
)

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Surface is the host the canvas draws into.
type Surface interface {
	// Size returns the current viewport size in pixels.
	Size() (width, height int)
	// Invalidate is called with every newly rendered frame.
	Invalidate(frame *image.RGBA)
}

// Selection is a drag from Start to End in canvas content coordinates, i.e.
// canvas-local pixels with the vertical scroll added back in.
type Selection struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Rect returns the normalized selection rectangle.
func (s Selection) Rect() Rect {
	return Rect{
		X: math.Min(s.Start.X, s.End.X),
		Y: math.Min(s.Start.Y, s.End.Y),
		W: math.Abs(s.End.X - s.Start.X),
		H: math.Abs(s.End.Y - s.Start.Y),
	}
}

// Crop is the encoded result of a finished selection.
type Crop struct {
	Data        []byte
	ContentType string
	// Bounds is the extracted rectangle in surface pixels.
	Bounds image.Rectangle
	// Source is the same area in native image pixels, clipped to the image.
	Source image.Rectangle
}

// DataURL returns the crop as a data: URL.
func (c Crop) DataURL() string {
	return DataURL(c.Data, c.ContentType)
}

// State is a read-only view of the canvas for clients.
type State struct {
	Layout    Layout     `json:"layout"`
	Selection *Selection `json:"selection,omitempty"`
	Dragging  bool       `json:"dragging"`
	HasImage  bool       `json:"has_image"`
	Viewport  [2]int     `json:"viewport"`
}

// Canvas holds the view transform and the drag state for one surface.
type Canvas struct {
	surface  Surface
	onSelect func(Crop)
	encoder  Encoder

	img       image.Image
	zoom      float64
	offset    float64
	selection *Selection
	dragging  bool
	origin    Point

	base  *image.RGBA // last frame without the selection overlay
	frame *image.RGBA

	mu sync.Mutex
}

// New returns a canvas drawing into surface. onSelect is called with every
// non-empty selection once the gesture ends; it runs on the caller's
// goroutine after the canvas lock is released.
func New(surface Surface, onSelect func(Crop)) *Canvas {
	return &Canvas{
		surface:  surface,
		onSelect: onSelect,
		encoder:  DefaultEncoder(),
		zoom:     1,
	}
}

// SetEncoder changes how crops are encoded.
func (c *Canvas) SetEncoder(e Encoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoder = e
}

// SetImage makes img the active image. The scroll offset and any selection
// are reset. A nil image clears the canvas.
func (c *Canvas) SetImage(img image.Image) {
	c.mu.Lock()
	c.img = img
	c.offset = 0
	c.selection = nil
	c.dragging = false
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
}

// SetImageData decodes data and makes it the active image.
func (c *Canvas) SetImageData(data []byte) error {
	img, err := Decode(data)
	if err != nil {
		return err
	}
	c.SetImage(img)
	return nil
}

// SetZoom sets the zoom factor and resets the vertical scroll.
func (c *Canvas) SetZoom(zoom float64) error {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return errors.New("zoom factor must be a positive number")
	}
	c.mu.Lock()
	c.zoom = zoom
	c.offset = 0
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
	return nil
}

// Zoom returns the current zoom factor.
func (c *Canvas) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Redraw renders the current state, e.g. after the surface was resized.
func (c *Canvas) Redraw() {
	c.mu.Lock()
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
}

// GestureStart begins a selection at p. Only primary presses select.
func (c *Canvas) GestureStart(p Point, button Button) {
	if button != ButtonPrimary {
		return
	}
	c.mu.Lock()
	c.dragging = true
	c.origin = Point{X: p.X, Y: p.Y + math.Abs(c.offset)}
	c.selection = nil
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
}

// GestureMove extends the selection to p while a drag is active.
func (c *Canvas) GestureMove(p Point) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.selection = &Selection{
		Start: c.origin,
		End:   Point{X: p.X, Y: p.Y + math.Abs(c.offset)},
	}
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
}

// GestureEnd finishes the drag. A selection with area is extracted from the
// rendered frame, encoded and handed to the selection callback; an empty one
// is dropped.
func (c *Canvas) GestureEnd() {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	sel := c.selection
	if sel == nil {
		c.mu.Unlock()
		return
	}

	crop, ok := c.extractSelection(*sel)
	c.selection = nil
	frame := c.redraw()
	onSelect := c.onSelect
	c.mu.Unlock()

	c.present(frame)
	if ok && onSelect != nil {
		onSelect(crop)
	}
}

// GestureCancel is called when the pointer leaves the surface. Like a release,
// it completes the current selection.
func (c *Canvas) GestureCancel() {
	c.GestureEnd()
}

// Wheel scrolls the image vertically by delta pixels. It is ignored while
// dragging and when the image fits the viewport.
func (c *Canvas) Wheel(delta float64) {
	c.mu.Lock()
	if c.dragging || c.img == nil {
		c.mu.Unlock()
		return
	}
	vw, vh := c.surface.Size()
	b := c.img.Bounds()
	l := ComputeLayout(b.Dx(), b.Dy(), vw, vh, c.zoom, c.offset)
	c.offset = ScrollOffset(c.offset, delta, l.Dest.H, float64(vh))
	frame := c.redraw()
	c.mu.Unlock()

	c.present(frame)
}

// Layout returns the layout of the current image in the current viewport.
func (c *Canvas) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout()
}

// State returns a snapshot of the canvas state.
func (c *Canvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	vw, vh := c.surface.Size()
	st := State{
		Layout:   c.layout(),
		Dragging: c.dragging,
		HasImage: c.img != nil,
		Viewport: [2]int{vw, vh},
	}
	if c.selection != nil {
		sel := *c.selection
		st.Selection = &sel
	}
	return st
}

// Frame returns the last rendered frame, or nil before the first redraw.
func (c *Canvas) Frame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// ImageRect maps a selection to native image pixels, clipped to the image.
func (c *Canvas) ImageRect(sel Selection) image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageRect(sel)
}

func (c *Canvas) layout() Layout {
	vw, vh := c.surface.Size()
	if c.img == nil {
		return ComputeLayout(0, 0, vw, vh, c.zoom, c.offset)
	}
	b := c.img.Bounds()
	return ComputeLayout(b.Dx(), b.Dy(), vw, vh, c.zoom, c.offset)
}

func (c *Canvas) imageRect(sel Selection) image.Rectangle {
	if c.img == nil {
		return image.Rectangle{}
	}
	l := c.layout()
	scale := l.Transform.Scale()
	if scale <= 0 {
		return image.Rectangle{}
	}
	r := sel.Rect()
	// content coordinates are screen coordinates with the offset removed,
	// so the image origin sits at the centering position
	x0 := (r.X - l.Dest.X) / scale
	y0 := (r.Y - l.Centering) / scale
	x1 := (r.X + r.W - l.Dest.X) / scale
	y1 := (r.Y + r.H - l.Centering) / scale
	rect := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
	b := c.img.Bounds()
	return rect.Add(b.Min).Intersect(b)
}

// extractSelection copies the selection out of the overlay-free frame at
// surface resolution. Callers hold the lock.
func (c *Canvas) extractSelection(sel Selection) (Crop, bool) {
	r := sel.Rect()
	r.Y -= math.Abs(c.offset)
	bounds := r.Image()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		slog.Debug("Dropping empty selection", "rect", bounds)
		return Crop{}, false
	}
	if c.base == nil || c.img == nil {
		return Crop{}, false
	}

	data, contentType, err := c.encoder.Encode(extract(c.base, bounds))
	if err != nil {
		slog.Error("Unable to encode selection", "err", err)
		return Crop{}, false
	}
	return Crop{
		Data:        data,
		ContentType: contentType,
		Bounds:      bounds,
		Source:      c.imageRect(sel),
	}, true
}

// redraw renders the image and the selection overlay. Callers hold the lock
// and pass the returned frame to present once it is released.
func (c *Canvas) redraw() *image.RGBA {
	vw, vh := c.surface.Size()
	if vw <= 0 || vh <= 0 {
		return nil
	}
	c.base = renderImage(c.img, vw, vh, c.layout())
	c.frame = c.base
	if c.selection != nil {
		r := c.selection.Rect()
		r.Y -= math.Abs(c.offset)
		c.frame = withOverlay(c.base, r.Image())
	}
	return c.frame
}

func (c *Canvas) present(frame *image.RGBA) {
	if frame != nil {
		c.surface.Invalidate(frame)
	}
}
