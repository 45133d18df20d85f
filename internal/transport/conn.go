package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type closeWriter interface {
	CloseWrite() error
}

// Conn is one connected duplex stream. Reads are meant for a single
// goroutine; writes may come from several and are serialized so that every
// message lands on the wire contiguously.
type Conn struct {
	rwc    io.ReadWriteCloser
	r      io.Reader
	remote string
	scheme string

	// chunk caps the size of a single underlying Write; zero means no cap.
	chunk int

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established net.Conn.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		rwc:    c,
		r:      c,
		remote: c.RemoteAddr().String(),
		scheme: SchemeTCP,
	}
}

// RemoteAddr returns the peer address as reported at connect time.
func (c *Conn) RemoteAddr() string { return c.remote }

// Scheme returns the transport scheme, "tcp" or "srt".
func (c *Conn) Scheme() string { return c.scheme }

// Read reads into p. A clean end of stream with no data is reported as
// ErrConnectionClosed; every other failure is an *IOError.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, io.EOF) {
		return n, ErrConnectionClosed
	}
	return n, &IOError{Op: "read", Err: err}
}

// Write writes all of p or fails. Concurrent writers never interleave.
func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	written := 0
	for written < len(p) {
		end := len(p)
		if c.chunk > 0 && end-written > c.chunk {
			end = written + c.chunk
		}
		n, err := c.rwc.Write(p[written:end])
		written += n
		if err != nil {
			return written, &IOError{Op: "write", Err: err}
		}
		if n == 0 {
			return written, &IOError{Op: "write", Err: io.ErrShortWrite}
		}
	}
	return written, nil
}

// WriteAsync starts writing p in the background and returns a channel that
// receives the outcome exactly once. p must not be modified until then.
func (c *Conn) WriteAsync(p []byte) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := c.Write(p)
		done <- err
	}()
	return done
}

// SetWriteDeadline bounds pending and future writes. Transports without
// deadline support ignore it.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	if d, ok := c.rwc.(writeDeadliner); ok {
		return d.SetWriteDeadline(t)
	}
	return nil
}

// SetReadDeadline bounds pending and future reads. Transports without
// deadline support ignore it.
func (c *Conn) SetReadDeadline(t time.Time) error {
	if d, ok := c.rwc.(readDeadliner); ok {
		return d.SetReadDeadline(t)
	}
	return nil
}

// CloseWrite shuts down the sending direction so the peer reads a clean
// end of stream while this side can still read. Transports without half
// close report nil and rely on Close.
func (c *Conn) CloseWrite() error {
	cw, ok := c.rwc.(closeWriter)
	if !ok {
		return nil
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := cw.CloseWrite(); err != nil {
		return &IOError{Op: "close write", Err: err}
	}
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}
