package capture

import (
	"fmt"
	"sync/atomic"

	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/wire"
)

var barColors = [][3]byte{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
}

// Pattern is a synthetic source that renders colour bars scrolling one
// column per frame. With Limit > 0 it produces exactly Limit frames and
// then reports ErrExhausted.
type Pattern struct {
	width, height int
	limit         int64
	frame         atomic.Int64
	handled       atomic.Int64
}

// NewPattern creates a width x height pattern source.
func NewPattern(width, height int, limit int) (*Pattern, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("capture: invalid pattern size %dx%d", width, height)
	}
	return &Pattern{width: width, height: height, limit: int64(limit)}, nil
}

func (p *Pattern) Width() int  { return p.width }
func (p *Pattern) Height() int { return p.height }

// Frames returns how many frames have been grabbed.
func (p *Pattern) Frames() int64 { return p.frame.Load() }

// Handled returns how many actions were accepted.
func (p *Pattern) Handled() int64 { return p.handled.Load() }

// Grab renders the next frame in BGRA, the layout a desktop grabber
// delivers.
func (p *Pattern) Grab() (*media.GrabbedFrame, error) {
	n := p.frame.Load()
	if p.limit > 0 && n >= p.limit {
		return nil, ErrExhausted
	}

	stride := p.width * 4
	data := make([]byte, stride*p.height)
	barWidth := p.width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}
	shift := int(n % int64(p.width))
	for x := 0; x < p.width; x++ {
		c := barColors[((x+shift)%p.width/barWidth)%len(barColors)]
		for y := 0; y < p.height; y++ {
			i := y*stride + x*4
			data[i], data[i+1], data[i+2], data[i+3] = c[2], c[1], c[0], 255
		}
	}
	p.frame.Add(1)

	return &media.GrabbedFrame{
		Width:       p.width,
		Height:      p.height,
		PixelFormat: media.PixelFormatBGRA,
		Data:        data,
		LineSize:    stride,
	}, nil
}

// HandleAction accepts every key and mouse action without side effects.
func (p *Pattern) HandleAction(a wire.Action) bool {
	if a.Kind == wire.NoAction {
		return false
	}
	p.handled.Add(1)
	return true
}
