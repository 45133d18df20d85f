// Package player is the client side of a screenshare session. It connects
// to a server, decodes the stream into a latest-frame slot and sends the
// user's key and mouse actions back on the same connection.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zsiec/screenshare/internal/action"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/transport"
	"github.com/zsiec/screenshare/internal/wire"
)

// State is the lifecycle of the player's connection.
type State int32

// Player states.
const (
	Disconnected State = iota
	Connecting
	Streaming
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config tunes a Player.
type Config struct {
	// IdleTimeout is the longest the player waits for the next packet.
	// Zero waits forever.
	IdleTimeout time.Duration
	// LogLines caps the info log.
	LogLines int
}

// DefaultLogLines is used when Config.LogLines is not positive.
const DefaultLogLines = 64

// Player owns at most one background streaming session at a time.
type Player struct {
	cfg     Config
	log     *slog.Logger
	frames  *FrameSlot
	info    *InfoLog
	actions *action.Queue

	state atomic.Int32

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	sizeMu sync.RWMutex
	width  int
	height int
}

// New creates an idle player.
func New(cfg Config, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LogLines <= 0 {
		cfg.LogLines = DefaultLogLines
	}
	return &Player{
		cfg:     cfg,
		log:     log.With("component", "player"),
		frames:  &FrameSlot{},
		info:    NewInfoLog(cfg.LogLines),
		actions: action.NewQueue(),
	}
}

// Connect starts streaming from addr in the background. It returns false
// and does nothing when a session is already running.
func (p *Player) Connect(addr string) bool {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.log.Debug("connect ignored, session already running", "addr", addr)
		return false
	}
	prev := p.done
	p.mu.Unlock()

	// The previous session has already cleared running; wait for its
	// goroutine to return so only one is ever alive.
	if prev != nil {
		<-prev
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.running = true
	p.cancel = cancel
	p.done = done
	p.lastErr = nil
	p.state.Store(int32(Connecting))
	p.mu.Unlock()

	p.info.AddLine("Connecting to " + addr)
	go p.run(ctx, cancel, done, addr)
	return true
}

func (p *Player) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, addr string) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("player: panic: %v", r)
		}
		cancel()
		p.finish(err)
		close(done)
	}()

	pump := &Pump{
		Addr:        addr,
		IdleTimeout: p.cfg.IdleTimeout,
		Actions:     p.actions,
		Sink:        p.frames,
		Info:        p.info,
		OnStreaming: p.streaming,
		Log:         p.log,
	}
	err = pump.Run(ctx)
}

func (p *Player) streaming(params media.CodecParameters) {
	p.sizeMu.Lock()
	p.width, p.height = params.Width, params.Height
	p.sizeMu.Unlock()
	p.state.Store(int32(Streaming))
}

// finish records how the session ended. A clean close by the server or a
// local Disconnect is not an error.
func (p *Player) finish(err error) {
	next := Disconnected
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		err = nil
		p.info.AddLine("Disconnected")
		p.log.Info("disconnected")
	case transport.IsClosed(err):
		p.info.AddLine("Server closed the connection")
		p.log.Info("server closed the connection")
	default:
		next = Error
		p.info.AddLines("Error: "+err.Error(), "Disconnected")
		p.log.Error("session failed", "error", err)
	}

	p.mu.Lock()
	p.running = false
	p.cancel = nil
	p.lastErr = err
	p.state.Store(int32(next))
	p.mu.Unlock()
}

// Disconnect asks the running session to stop. The session notices at its
// next loop iteration, after the read in progress returns.
func (p *Player) Disconnect() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current session, if any, has finished or ctx is
// done.
func (p *Player) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current connection state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Err returns the error that ended the last session. A server close is
// reported as transport.ErrConnectionClosed; a local Disconnect as nil.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Running reports whether a session goroutine is active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// PushKey queues a key press. Keys longer than four bytes are truncated.
func (p *Player) PushKey(key string) {
	a := wire.NewKeyPressed(key)
	p.actions.Push(a)
	p.log.Debug("queued action", "action", a)
}

// PushClick queues a click at pixel (px, py) of the displayed stream. The
// position is normalized by the stream dimensions and clamped to [0, 1].
// Clicks before the first handshake are dropped.
func (p *Player) PushClick(button uint32, px, py float64) {
	p.sizeMu.RLock()
	w, h := p.width, p.height
	p.sizeMu.RUnlock()
	if w <= 0 || h <= 0 {
		p.log.Debug("click dropped, stream size unknown")
		return
	}
	a := wire.NewMouseButtonPressed(button, normalize(px, w), normalize(py, h))
	p.actions.Push(a)
	p.log.Debug("queued action", "action", a)
}

func normalize(v float64, size int) float64 {
	if size <= 0 {
		return 0
	}
	return min(max(v/float64(size), 0), 1)
}

// Size returns the stream dimensions from the last handshake.
func (p *Player) Size() (width, height int) {
	p.sizeMu.RLock()
	defer p.sizeMu.RUnlock()
	return p.width, p.height
}

// Frames returns the latest-frame slot.
func (p *Player) Frames() *FrameSlot { return p.frames }

// Info returns the rolling status log.
func (p *Player) Info() *InfoLog { return p.info }

// IsHandshakeError reports whether err came from a failed handshake.
func IsHandshakeError(err error) bool {
	return errors.Is(err, ErrHandshakeFailed)
}
