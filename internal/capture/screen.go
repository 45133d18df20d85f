package capture

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"os/exec"
	"strconv"

	"github.com/kbinani/screenshot"

	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/wire"
)

// Screen grabs one display and replays actions on it through xdotool.
type Screen struct {
	log    *slog.Logger
	bounds image.Rectangle
	run    func(name string, args ...string) error
}

// NewScreen opens display index n. A negative n selects the primary
// display, the one whose bounds start at the origin.
func NewScreen(n int, log *slog.Logger) (*Screen, error) {
	if log == nil {
		log = slog.Default()
	}
	count := screenshot.NumActiveDisplays()
	if count == 0 {
		return nil, fmt.Errorf("capture: no active displays")
	}
	if n >= count {
		return nil, fmt.Errorf("capture: display %d out of range (%d active)", n, count)
	}

	var bounds image.Rectangle
	if n >= 0 {
		bounds = screenshot.GetDisplayBounds(n)
	} else {
		for i := 0; i < count; i++ {
			b := screenshot.GetDisplayBounds(i)
			if b.Min.X == 0 && b.Min.Y == 0 {
				bounds = b
				break
			}
		}
		if bounds.Empty() {
			bounds = screenshot.GetDisplayBounds(0)
		}
	}

	s := &Screen{
		log:    log.With("component", "screen-capture"),
		bounds: bounds,
		run:    runCommand,
	}
	if _, err := exec.LookPath("xdotool"); err != nil {
		s.log.Warn("xdotool not found, remote control disabled")
		s.run = nil
	}
	return s, nil
}

func (s *Screen) Width() int  { return s.bounds.Dx() }
func (s *Screen) Height() int { return s.bounds.Dy() }

// Grab captures the display.
func (s *Screen) Grab() (*media.GrabbedFrame, error) {
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture: grab: %w", err)
	}
	return &media.GrabbedFrame{
		Width:       img.Rect.Dx(),
		Height:      img.Rect.Dy(),
		PixelFormat: media.PixelFormatRGBA,
		Data:        img.Pix,
		LineSize:    img.Stride,
	}, nil
}

// HandleAction presses a key or clicks at a position given as fractions of
// the display.
func (s *Screen) HandleAction(a wire.Action) bool {
	if s.run == nil {
		return false
	}

	var args []string
	switch a.Kind {
	case wire.KeyPressed:
		key := keysym(a.KeyString())
		if key == "" {
			return false
		}
		args = []string{"key", key}
	case wire.MouseButtonPressed:
		x, y := s.point(a.X, a.Y)
		args = []string{"mousemove", strconv.Itoa(x), strconv.Itoa(y), "click", strconv.FormatUint(uint64(a.Button), 10)}
	default:
		return false
	}

	if err := s.run("xdotool", args...); err != nil {
		s.log.Warn("xdotool failed", "action", a, "error", err)
		return false
	}
	return true
}

// point maps fractions of the capture surface onto absolute screen pixels,
// clamped to the last pixel.
func (s *Screen) point(fx, fy float64) (int, int) {
	return s.bounds.Min.X + scale(fx, s.bounds.Dx()), s.bounds.Min.Y + scale(fy, s.bounds.Dy())
}

func scale(f float64, size int) int {
	if size <= 0 {
		return 0
	}
	return min(int(math.Round(clamp01(f)*float64(size))), size-1)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}
