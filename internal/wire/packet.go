package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/zsiec/screenshare/internal/media"
)

// PacketHeaderSize is the size of the fixed part of a packet message.
const PacketHeaderSize = 52

// MaxPacketSize bounds the payload a peer may declare.
const MaxPacketSize = 64 << 20

// PacketHeader is per-packet diagnostic metadata. It never affects
// protocol correctness.
type PacketHeader struct {
	// EncoderPTS is the presentation timestamp in the encoder's time base,
	// increasing by one per encoded frame.
	EncoderPTS int64
	// SentAt is the wall-clock time the packet was serialized.
	SentAt time.Time
}

// Latency returns how long ago the packet was serialized, according to the
// local clock.
func (h PacketHeader) Latency(now time.Time) time.Duration {
	if h.SentAt.IsZero() {
		return 0
	}
	return now.Sub(h.SentAt)
}

// AppendPacket appends the fixed packet header followed by the payload.
// Only the declared size and the bytes are serialized; buffer handles stay
// local to the sender.
func AppendPacket(buf []byte, h PacketHeader, p *media.Packet) []byte {
	var hdr [PacketHeaderSize]byte
	var sentAt int64
	if !h.SentAt.IsZero() {
		sentAt = h.SentAt.UnixNano()
	}
	binary.BigEndian.PutUint64(hdr[0:8], uint64(h.EncoderPTS))
	binary.BigEndian.PutUint64(hdr[8:16], uint64(sentAt))
	binary.BigEndian.PutUint64(hdr[16:24], uint64(p.PTS))
	binary.BigEndian.PutUint64(hdr[24:32], uint64(p.DTS))
	binary.BigEndian.PutUint64(hdr[32:40], uint64(p.Duration))
	binary.BigEndian.PutUint32(hdr[40:44], uint32(p.Flags))
	binary.BigEndian.PutUint32(hdr[44:48], uint32(p.StreamIndex))
	binary.BigEndian.PutUint32(hdr[48:52], uint32(int32(len(p.Data))))

	buf = append(buf, hdr[:]...)
	return append(buf, p.Data...)
}

// EncodePacket returns the packet message as a single buffer.
func EncodePacket(h PacketHeader, p *media.Packet) []byte {
	return AppendPacket(make([]byte, 0, PacketHeaderSize+len(p.Data)), h, p)
}

// WritePacket writes the packet message with a single Write call.
func WritePacket(w io.Writer, h PacketHeader, p *media.Packet) error {
	_, err := w.Write(EncodePacket(h, p))
	return err
}

// PacketReader decodes consecutive packet messages from one stream,
// reusing a single payload buffer across reads.
type PacketReader struct {
	r   io.Reader
	hdr [PacketHeaderSize]byte
	buf []byte
}

// NewPacketReader creates a PacketReader reading from r.
func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{r: r}
}

// ReadPacket reads one packet. The returned packet's Data aliases the
// reader's buffer and is only valid until the next call; its length is
// always exactly the declared size.
func (pr *PacketReader) ReadPacket() (PacketHeader, *media.Packet, error) {
	var h PacketHeader
	if err := readFull(pr.r, pr.hdr[:], "packet_header", true); err != nil {
		return h, nil, err
	}

	b := pr.hdr[:]
	h.EncoderPTS = int64(binary.BigEndian.Uint64(b[0:8]))
	if ns := int64(binary.BigEndian.Uint64(b[8:16])); ns != 0 {
		h.SentAt = time.Unix(0, ns)
	}

	p := &media.Packet{
		PTS:         int64(binary.BigEndian.Uint64(b[16:24])),
		DTS:         int64(binary.BigEndian.Uint64(b[24:32])),
		Duration:    int64(binary.BigEndian.Uint64(b[32:40])),
		Flags:       media.PacketFlags(binary.BigEndian.Uint32(b[40:44])),
		StreamIndex: int32(binary.BigEndian.Uint32(b[44:48])),
	}

	size := int32(binary.BigEndian.Uint32(b[48:52]))
	switch {
	case size < 0:
		return h, nil, &ParseError{Field: "size", Err: fmt.Errorf("%w: %d", ErrInvalidSize, size)}
	case size > MaxPacketSize:
		return h, nil, &ParseError{Field: "size", Err: fmt.Errorf("%w: %d", ErrFrameTooLarge, size)}
	}

	if int(size) > cap(pr.buf) {
		pr.buf = make([]byte, size)
	}
	p.Data = pr.buf[:size]

	if err := readFull(pr.r, p.Data, "payload", false); err != nil {
		return h, nil, err
	}
	return h, p, nil
}

// ReadPacket decodes a single packet into a freshly allocated buffer.
func ReadPacket(r io.Reader) (PacketHeader, *media.Packet, error) {
	return NewPacketReader(r).ReadPacket()
}
