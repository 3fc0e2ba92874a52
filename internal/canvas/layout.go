package canvas

import (
	"image"
	"math"
)

// Point is a position in canvas-local pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a rectangle in canvas pixels, kept in floating point until it is
// rasterised.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Image rounds r to whole pixels.
func (r Rect) Image() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	return image.Rect(x0, y0, x0+int(math.Round(r.W)), y0+int(math.Round(r.H)))
}

// ViewTransform maps image pixels to canvas pixels.
type ViewTransform struct {
	HorizontalScale float64 `json:"horizontal_scale"`
	VerticalOffset  float64 `json:"vertical_offset"`
	ZoomFactor      float64 `json:"zoom_factor"`
}

// Scale is the effective image to canvas scale.
func (v ViewTransform) Scale() float64 {
	return v.HorizontalScale * v.ZoomFactor
}

// Layout is the result of fitting an image into a viewport.
type Layout struct {
	Transform ViewTransform `json:"transform"`
	// Dest is where the image is drawn, vertical offset included.
	Dest Rect `json:"dest"`
	// Centering is the vertical centering applied before the offset; zero
	// when the content is taller than the viewport.
	Centering float64 `json:"centering"`
}

// ComputeLayout fits an image of imgW x imgH into a vw x vh viewport. The
// image is scaled to the viewport width times zoom, centered on each axis it
// fits in and aligned to 0 on each axis it overflows, then shifted by offset.
func ComputeLayout(imgW, imgH, vw, vh int, zoom, offset float64) Layout {
	if imgW <= 0 || imgH <= 0 || vw <= 0 {
		return Layout{Transform: ViewTransform{ZoomFactor: zoom, VerticalOffset: offset}}
	}
	scale := float64(vw) / float64(imgW)
	w := float64(imgW) * scale * zoom
	h := float64(imgH) * scale * zoom

	x := 0.0
	if w <= float64(vw) {
		x = float64(vw)/2 - w/2
	}
	y := centering(h, float64(vh))

	return Layout{
		Transform: ViewTransform{
			HorizontalScale: scale,
			VerticalOffset:  offset,
			ZoomFactor:      zoom,
		},
		Dest:      Rect{X: x, Y: y + offset, W: w, H: h},
		Centering: y,
	}
}

func centering(contentH, vh float64) float64 {
	if contentH > vh {
		return 0
	}
	return vh/2 - contentH/2
}

// ScrollOffset applies a wheel delta to offset. Content that fits the viewport
// never scrolls; otherwise the offset is clamped so the content edges stay
// within the viewport.
func ScrollOffset(offset, delta, contentH, vh float64) float64 {
	if contentH <= vh {
		return 0
	}
	c := centering(contentH, vh)
	next := offset - delta + c
	lo := -(contentH - vh) + c
	hi := c
	return math.Max(math.Min(next, hi), lo)
}
