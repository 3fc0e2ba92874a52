package canvas

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// SelectionColor is the stroke color of the selection overlay.
var SelectionColor = color.RGBA{R: 255, A: 255}

// SelectionStroke is the overlay line width in pixels.
const SelectionStroke = 2

// renderImage draws img into a new vw x vh frame at the layout destination.
// Pixels outside the image stay transparent.
func renderImage(img image.Image, vw, vh int, l Layout) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, vw, vh))
	if img == nil {
		return frame
	}
	dst := l.Dest.Image()
	if dst.Empty() {
		return frame
	}
	xdraw.ApproxBiLinear.Scale(frame, dst, img, img.Bounds(), draw.Over, nil)
	return frame
}

// withOverlay copies base and strokes r on top of it.
func withOverlay(base *image.RGBA, r image.Rectangle) *image.RGBA {
	frame := image.NewRGBA(base.Bounds())
	copy(frame.Pix, base.Pix)
	strokeRect(frame, r, SelectionColor, SelectionStroke)
	return frame
}

// strokeRect draws the outline of r with the line centered on its edges.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color, width int) {
	if width <= 0 {
		return
	}
	src := image.NewUniform(c)
	in := width / 2
	out := width - in
	edges := []image.Rectangle{
		image.Rect(r.Min.X-out, r.Min.Y-out, r.Max.X+out, r.Min.Y+in), // top
		image.Rect(r.Min.X-out, r.Max.Y-in, r.Max.X+out, r.Max.Y+out), // bottom
		image.Rect(r.Min.X-out, r.Min.Y-out, r.Min.X+in, r.Max.Y+out), // left
		image.Rect(r.Max.X-in, r.Min.Y-out, r.Max.X+out, r.Max.Y+out), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Over)
	}
}

// extract copies r out of frame into a new image the size of r. Parts of r
// outside the frame are left transparent.
func extract(frame *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), frame, r.Min, draw.Src)
	return out
}
