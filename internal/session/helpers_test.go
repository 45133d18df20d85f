package session

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/zsiec/screenshare/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipeClient returns a registered-style client backed by an in-memory pipe
// and the peer end of that pipe.
func pipeClient(t *testing.T, id uint64) (*Client, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewClient(id, transport.NewConn(a)), b
}

// pipeListener hands out pre-made connections.
type pipeListener struct {
	conns     chan *transport.Conn
	closeOnce sync.Once
	closed    chan struct{}
}

func newPipeListener() *pipeListener {
	return &pipeListener{conns: make(chan *transport.Conn, 8), closed: make(chan struct{})}
}

// dial queues a new connection for Accept and returns the peer end.
func (l *pipeListener) dial() net.Conn {
	a, b := net.Pipe()
	l.conns <- transport.NewConn(a)
	return b
}

func (l *pipeListener) Accept() (*transport.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, errors.New("listener closed")
	}
}

func (l *pipeListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *pipeListener) Addr() string { return "pipe" }
