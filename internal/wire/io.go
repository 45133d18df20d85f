package wire

import (
	"errors"
	"fmt"
	"io"
)

// readFull fills buf from r. A reader that is exhausted before the first
// byte of a frame yields its end-of-stream error unchanged (io.EOF or a
// transport error wrapping it), so callers can tell a clean close from a
// short read. Any other shortfall is reported as ErrTruncated.
func readFull(r io.Reader, buf []byte, field string, boundary bool) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if boundary && n == 0 && errors.Is(err, io.EOF) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ParseError{
			Field: field,
			Err:   fmt.Errorf("%w: read %d of %d bytes", ErrTruncated, n, len(buf)),
		}
	}
	return &ParseError{Field: field, Err: err}
}
