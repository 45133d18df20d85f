// Package viewer is the desktop window for the client: it shows the latest
// decoded frame with the info log overlaid and turns key presses and mouse
// clicks into player actions.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/zsiec/screenshare/internal/player"
)

// Source is the player surface the window reads from and writes to.
type Source interface {
	Frames() *player.FrameSlot
	Info() *player.InfoLog
	Size() (width, height int)
	State() player.State
	PushKey(key string)
	PushClick(button uint32, x, y float64)
}

// Config tunes the window.
type Config struct {
	Title string
	// PollInterval is how often the info log text is refreshed.
	PollInterval time.Duration
}

// Game implements ebiten.Game on top of a Source.
type Game struct {
	src  Source
	cfg  Config
	log  *slog.Logger
	done <-chan struct{}

	frame        *ebiten.Image
	frameVersion uint64

	text        string
	textVersion uint64
	lastPoll    time.Time

	keys  []ebiten.Key
	chars []rune
}

// NewGame creates the window state. It is closed when ctx is done.
func NewGame(ctx context.Context, src Source, cfg Config, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 16 * time.Millisecond
	}
	if cfg.Title == "" {
		cfg.Title = "screenshare"
	}
	return &Game{
		src:  src,
		cfg:  cfg,
		log:  log.With("component", "viewer"),
		done: ctx.Done(),
	}
}

// Run opens the window and blocks until it is closed or ctx is done. It
// must be called from the main goroutine.
func Run(ctx context.Context, src Source, cfg Config, log *slog.Logger) error {
	g := NewGame(ctx, src, cfg, log)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	g.log.Info("window opened")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("viewer: %w", err)
	}
	g.log.Info("window closed")
	return nil
}

// Update polls the player and forwards input.
func (g *Game) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}

	now := time.Now()
	if now.Sub(g.lastPoll) >= g.cfg.PollInterval {
		g.lastPoll = now
		if text, v, changed := g.src.Info().TextSince(g.textVersion); changed {
			g.text, g.textVersion = text, v
		}
	}

	if g.src.State() != player.Streaming {
		return nil
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if name := keyName(k); name != "" {
			g.src.PushKey(name)
		}
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		g.src.PushKey(string(r))
	}

	for b, button := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			x, y := ebiten.CursorPosition()
			g.src.PushClick(button, float64(x), float64(y))
		}
	}
	return nil
}

// Draw renders the newest frame and the info log.
func (g *Game) Draw(screen *ebiten.Image) {
	img, v := g.src.Frames().Latest()
	if img != nil && v != g.frameVersion {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImageFromImage(img)
		g.frameVersion = v
	}
	if g.frame != nil {
		screen.DrawImage(g.frame, &ebiten.DrawImageOptions{})
	}
	ebitenutil.DebugPrint(screen, g.text)
}

// Layout uses the stream size, so cursor positions arrive in stream pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if w, h := g.src.Size(); w > 0 && h > 0 {
		return w, h
	}
	return outsideWidth, outsideHeight
}

// mouseButtons maps window buttons to X button numbers.
var mouseButtons = map[ebiten.MouseButton]uint32{
	ebiten.MouseButtonLeft:   1,
	ebiten.MouseButtonMiddle: 2,
	ebiten.MouseButtonRight:  3,
}

// keyName returns the name sent for non-printable keys. Printable keys
// arrive through AppendInputChars instead.
func keyName(k ebiten.Key) string {
	switch k {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return "Return"
	case ebiten.KeyEscape:
		return "Escape"
	case ebiten.KeyBackspace:
		return "BackSpace"
	case ebiten.KeyDelete:
		return "Delete"
	case ebiten.KeyTab:
		return "Tab"
	case ebiten.KeyArrowLeft:
		return "Left"
	case ebiten.KeyArrowRight:
		return "Right"
	case ebiten.KeyArrowUp:
		return "Up"
	case ebiten.KeyArrowDown:
		return "Down"
	case ebiten.KeyHome:
		return "Home"
	case ebiten.KeyEnd:
		return "End"
	case ebiten.KeyPageDown:
		return "Page_Down"
	case ebiten.KeyInsert:
		return "Insert"
	}
	return functionKeys[k]
}

var functionKeys = map[ebiten.Key]string{
	ebiten.KeyF1:  "F1",
	ebiten.KeyF2:  "F2",
	ebiten.KeyF3:  "F3",
	ebiten.KeyF4:  "F4",
	ebiten.KeyF5:  "F5",
	ebiten.KeyF6:  "F6",
	ebiten.KeyF7:  "F7",
	ebiten.KeyF8:  "F8",
	ebiten.KeyF9:  "F9",
	ebiten.KeyF10: "F10",
	ebiten.KeyF11: "F11",
	ebiten.KeyF12: "F12",
}
