package transport

import (
	"context"
	"fmt"
	"net"
)

// Listener accepts inbound connections on one address.
type Listener interface {
	// Accept blocks until a peer connects or the listener is closed.
	Accept() (*Conn, error)
	Close() error
	// Addr returns the bound address in scheme://host:port form.
	Addr() string
}

// Listen binds addr ("tcp://host:port", "srt://host:port" or a bare
// host:port for TCP).
func Listen(addr string) (Listener, error) {
	scheme, hostport, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case SchemeSRT:
		l, err := listenSRT(hostport)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		l, err := net.Listen("tcp", hostport)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", hostport, err)
		}
		return &tcpListener{l: l}, nil
	}
}

// Dial connects to addr, honouring ctx for cancellation and deadline.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	scheme, hostport, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case SchemeSRT:
		return dialSRT(ctx, hostport)
	default:
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", hostport)
		if err != nil {
			return nil, &IOError{Op: "dial", Err: err}
		}
		return NewConn(c), nil
	}
}

type tcpListener struct {
	l net.Listener
}

func (t *tcpListener) Accept() (*Conn, error) {
	c, err := t.l.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return NewConn(c), nil
}

func (t *tcpListener) Close() error { return t.l.Close() }

func (t *tcpListener) Addr() string { return SchemeTCP + "://" + t.l.Addr().String() }
