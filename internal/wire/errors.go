package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors for protocol violations. Every one of them is fatal for
// the connection it was observed on; there is no resynchronisation.
var (
	ErrTruncated          = errors.New("wire: truncated frame")
	ErrBadMagic           = errors.New("wire: bad handshake magic")
	ErrUnsupportedVersion = errors.New("wire: unsupported protocol version")
	ErrFrameTooLarge      = errors.New("wire: declared size too large")
	ErrInvalidSize        = errors.New("wire: negative declared size")
	ErrUnknownAction      = errors.New("wire: unknown action type")
)

// ParseError records which field was being decoded when a read or
// validation failed.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
