package transport

import (
	"errors"
	"fmt"
	"io"
)

// ErrConnectionClosed reports a clean shutdown by the peer. It wraps io.EOF
// so callers may check either.
var ErrConnectionClosed = fmt.Errorf("transport: connection closed by peer: %w", io.EOF)

// ErrUnsupportedScheme is returned for addresses with an unknown scheme.
var ErrUnsupportedScheme = errors.New("transport: unsupported address scheme")

// IOError is any transport fault other than a clean close: reset, broken
// pipe, timeout, unreachable host.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsClosed reports whether err is a clean peer close rather than a fault.
func IsClosed(err error) bool {
	return errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF)
}
