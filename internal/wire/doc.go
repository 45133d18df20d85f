// Package wire implements the screenshare stream protocol codec: the
// one-time codec-parameter handshake, video packets with their fixed
// metadata header, and fixed-size client action frames. All integers are
// big-endian.
//
// This package performs no connection management; readers and writers are
// supplied by [github.com/zsiec/screenshare/internal/transport].
package wire
