package session

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
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/transport"
	"github.com/zsiec/screenshare/internal/wire"
)

// ErrHandshakeFailed reports that the codec parameters could not be sent to
// a new connection. The candidate is dropped without being registered.
var ErrHandshakeFailed = errors.New("session: handshake failed")

// Acceptor greets inbound connections, registers them and starts one action
// pump per client.
type Acceptor struct {
	log      *slog.Logger
	listener transport.Listener
	registry *Registry
	inbound  *action.Queue
	params   media.CodecParameters
	metrics  *metrics.Metrics
	timeout  time.Duration

	nextID     atomic.Uint64
	handshakes sync.WaitGroup
	pumps      sync.WaitGroup
}

// AcceptorConfig wires an Acceptor to the rest of the server.
type AcceptorConfig struct {
	Listener transport.Listener
	Registry *Registry
	// Inbound receives every action read from any client.
	Inbound *action.Queue
	// Params is sent to every new connection.
	Params media.CodecParameters
	// HandshakeTimeout bounds the handshake write; zero means no deadline.
	HandshakeTimeout time.Duration
	Metrics          *metrics.Metrics
}

// NewAcceptor creates an Acceptor. If log is nil, slog.Default() is used.
func NewAcceptor(cfg AcceptorConfig, log *slog.Logger) *Acceptor {
	if log == nil {
		log = slog.Default()
	}
	return &Acceptor{
		log:      log.With("component", "acceptor"),
		listener: cfg.Listener,
		registry: cfg.Registry,
		inbound:  cfg.Inbound,
		params:   cfg.Params,
		metrics:  cfg.Metrics,
		timeout:  cfg.HandshakeTimeout,
	}
}

// Run accepts connections until ctx is cancelled, then closes the listener
// and waits for in-flight handshakes. A failed accept or handshake never
// stops the loop.
func (a *Acceptor) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		a.listener.Close()
	})
	defer stop()

	a.log.Info("accepting", "addr", a.listener.Addr())
	defer a.handshakes.Wait()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.log.Warn("accept error", "error", err)
			continue
		}

		a.handshakes.Add(1)
		go func() {
			defer a.handshakes.Done()
			a.admit(ctx, conn)
		}()
	}
}

// admit performs the handshake and, on success, registers the client and
// starts its action pump.
func (a *Acceptor) admit(ctx context.Context, conn *transport.Conn) {
	if err := a.handshake(conn); err != nil {
		a.log.Warn("dropping connection", "remote", conn.RemoteAddr(), "error", err)
		if a.metrics != nil {
			a.metrics.HandshakeFailures.Inc()
		}
		conn.Close()
		return
	}
	if ctx.Err() != nil {
		conn.Close()
		return
	}

	c := NewClient(a.nextID.Add(1), conn)
	if err := a.registry.Register(c); err != nil {
		a.log.Error("register client", "client", c.ID, "error", err)
		conn.Close()
		return
	}
	if a.metrics != nil {
		a.metrics.RecordAccept()
	}
	a.log.Info("client connected",
		"client", c.ID,
		"session", c.Session,
		"remote", conn.RemoteAddr(),
		"transport", conn.Scheme(),
		"clients", a.registry.Len())

	a.pumps.Add(1)
	go func() {
		defer a.pumps.Done()
		a.pump(c)
	}()
}

func (a *Acceptor) handshake(conn *transport.Conn) error {
	if a.timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(a.timeout))
		defer conn.SetWriteDeadline(time.Time{})
	}
	if err := wire.WriteHandshake(conn, a.params); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	return nil
}

// pump reads fixed-size action frames from one client into the shared
// inbound queue until the connection fails. It never evicts the client;
// that is left to the fanout path.
func (a *Acceptor) pump(c *Client) {
	for {
		act, err := wire.ReadAction(c.Conn)
		if err != nil {
			if transport.IsClosed(err) {
				a.log.Debug("action stream closed", "client", c.ID)
			} else {
				a.log.Debug("action stream failed", "client", c.ID, "error", err)
			}
			return
		}
		c.actionsReceived.Add(1)
		if a.metrics != nil {
			a.metrics.ActionsReceived.Inc()
		}
		a.inbound.Push(act)
	}
}

// WaitPumps waits for every action pump to finish, or for timeout to
// elapse. It reports whether all pumps finished.
func (a *Acceptor) WaitPumps(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		a.pumps.Wait()
		close(done)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
