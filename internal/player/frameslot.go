package player

import (
	"image"
	"sync"
)

// FrameSink receives decoded frames. It must not block.
type FrameSink interface {
	SetFrame(img image.Image)
}

// FrameSlot holds only the most recently decoded frame. A new frame
// replaces the previous one whether or not it was ever shown.
type FrameSlot struct {
	mu      sync.Mutex
	img     image.Image
	version uint64
}

// SetFrame replaces the current frame.
func (s *FrameSlot) SetFrame(img image.Image) {
	s.mu.Lock()
	s.img = img
	s.version++
	s.mu.Unlock()
}

// Latest returns the current frame and its version. The version is zero
// before the first frame.
func (s *FrameSlot) Latest() (image.Image, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, s.version
}
