package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zsiec/screenshare/internal/media"
)

// Magic opens every handshake.
var Magic = [4]byte{'S', 'S', 'H', 'R'}

// Version is the protocol version carried in the handshake.
const Version byte = 1

// HandshakeHeaderSize is the size of the fixed handshake header that
// precedes the codec extra data.
const HandshakeHeaderSize = 48

// MaxExtraDataSize bounds the extra data a peer may declare.
const MaxExtraDataSize = 1 << 20

// AppendHandshake appends the handshake for p to buf: the fixed header
// followed by exactly len(p.ExtraData) bytes.
func AppendHandshake(buf []byte, p media.CodecParameters) []byte {
	var hdr [HandshakeHeaderSize]byte
	copy(hdr[0:4], Magic[:])
	hdr[4] = Version
	binary.BigEndian.PutUint32(hdr[8:12], uint32(p.CodecID))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(p.PixelFormat))
	binary.BigEndian.PutUint32(hdr[16:20], uint32(p.Width))
	binary.BigEndian.PutUint32(hdr[20:24], uint32(p.Height))
	binary.BigEndian.PutUint32(hdr[24:28], uint32(p.TimeBase.Num))
	binary.BigEndian.PutUint32(hdr[28:32], uint32(p.TimeBase.Den))
	binary.BigEndian.PutUint64(hdr[32:40], uint64(p.BitRate))
	binary.BigEndian.PutUint32(hdr[40:44], uint32(len(p.ExtraData)))

	buf = append(buf, hdr[:]...)
	return append(buf, p.ExtraData...)
}

// EncodeHandshake returns the handshake for p as a single buffer.
func EncodeHandshake(p media.CodecParameters) []byte {
	return AppendHandshake(make([]byte, 0, HandshakeHeaderSize+len(p.ExtraData)), p)
}

// WriteHandshake writes the handshake for p with a single Write call.
func WriteHandshake(w io.Writer, p media.CodecParameters) error {
	_, err := w.Write(EncodeHandshake(p))
	return err
}

// ReadHandshake reads the fixed header, then exactly the declared amount of
// extra data into a freshly allocated buffer owned by the result.
func ReadHandshake(r io.Reader) (media.CodecParameters, error) {
	var p media.CodecParameters
	var hdr [HandshakeHeaderSize]byte
	if err := readFull(r, hdr[:], "handshake_header", true); err != nil {
		return p, err
	}

	if [4]byte(hdr[0:4]) != Magic {
		return p, &ParseError{Field: "magic", Err: ErrBadMagic}
	}
	if hdr[4] != Version {
		return p, &ParseError{Field: "version", Err: fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr[4])}
	}

	p.CodecID = media.CodecID(binary.BigEndian.Uint32(hdr[8:12]))
	p.PixelFormat = media.PixelFormat(binary.BigEndian.Uint32(hdr[12:16]))
	p.Width = int(binary.BigEndian.Uint32(hdr[16:20]))
	p.Height = int(binary.BigEndian.Uint32(hdr[20:24]))
	p.TimeBase.Num = int32(binary.BigEndian.Uint32(hdr[24:28]))
	p.TimeBase.Den = int32(binary.BigEndian.Uint32(hdr[28:32]))
	p.BitRate = int64(binary.BigEndian.Uint64(hdr[32:40]))

	extraSize := binary.BigEndian.Uint32(hdr[40:44])
	if extraSize > MaxExtraDataSize {
		return p, &ParseError{Field: "extra_data_size", Err: fmt.Errorf("%w: %d", ErrFrameTooLarge, extraSize)}
	}
	if extraSize == 0 {
		return p, nil
	}

	p.ExtraData = make([]byte, extraSize)
	if err := readFull(r, p.ExtraData, "extra_data", false); err != nil {
		return p, err
	}
	return p, nil
}
