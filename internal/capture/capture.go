// Package capture provides the frame sources the server streams from and
// applies the remote-control actions clients send back.
package capture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/wire"
)

// ErrExhausted is returned by Grab when a finite source has no more frames.
// It ends the stream cleanly.
var ErrExhausted = errors.New("capture: source exhausted")

// Interactor is a capture surface that can also be driven remotely.
// Grab is called once per producer cycle; an error other than ErrExhausted
// is a transient failure and the cycle is skipped.
type Interactor interface {
	Width() int
	Height() int
	Grab() (*media.GrabbedFrame, error)
	// HandleAction applies a and reports whether it was recognised.
	HandleAction(a wire.Action) bool
}

// Source names accepted by Open.
const (
	SourceScreen  = "screen"
	SourcePattern = "pattern"
)

// Config selects and sizes a source.
type Config struct {
	Source string
	// Display is the screen index for SourceScreen; negative picks the
	// primary display.
	Display int
	// Width and Height size the pattern source.
	Width, Height int
	// Limit bounds the pattern source to that many frames; zero is endless.
	Limit int
}

// Open creates the source named by cfg.Source.
func Open(cfg Config, log *slog.Logger) (Interactor, error) {
	var (
		src Interactor
		err error
	)
	switch cfg.Source {
	case SourceScreen:
		src, err = NewScreen(cfg.Display, log)
	case SourcePattern, "":
		src, err = NewPattern(cfg.Width, cfg.Height, cfg.Limit)
	default:
		err = fmt.Errorf("capture: unknown source %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
