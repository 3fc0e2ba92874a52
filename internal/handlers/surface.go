package handlers

import (
	"image"
	"sync"
)

// Surface is the canvas host for HTTP clients: the viewport size is set by
// the client and the last frame is kept for GET /api/canvas/frame.
type Surface struct {
	mu     sync.RWMutex
	width  int
	height int
	frame  *image.RGBA
}

func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *Surface) Invalidate(frame *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
}

func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *Surface) Frame() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}
