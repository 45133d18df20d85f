// Package codec provides the encode and decode engines behind the stream.
// Both follow a send/receive contract: the caller sends one input, then
// drains outputs until ErrAgain (nothing more for now) or ErrEOF (the
// engine has been flushed and is finished). Any other error is a *Error and
// ends the stream.
package codec

import (
	"errors"
	"fmt"
	"image"

	"github.com/zsiec/screenshare/internal/media"
)

// Expected drain results. Neither is a failure.
var (
	ErrAgain = errors.New("codec: output not available, send more input")
	ErrEOF   = errors.New("codec: end of stream")
)

// Failure causes wrapped in *Error.
var (
	ErrUnsupportedCodec = errors.New("codec: unsupported codec")
	ErrFrameSize        = errors.New("codec: frame size does not match stream")
	ErrCorruptPacket    = errors.New("codec: corrupt packet")
)

// Error is a codec engine failure other than the two drain results.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Encoder turns frames into packets. It is owned by a single goroutine.
type Encoder interface {
	// Parameters describes the stream for the handshake. The time base is
	// the reciprocal of the frame rate; frame PTS values count frames.
	Parameters() media.CodecParameters
	// SendFrame submits one frame. A nil frame flushes the encoder.
	SendFrame(f *media.Frame) error
	// ReceivePacket returns the next encoded packet in the encoder's time
	// base, ErrAgain when none is ready, or ErrEOF after a drained flush.
	ReceivePacket() (*media.Packet, error)
}

// Decoder turns packets back into images. It is owned by a single
// goroutine.
type Decoder interface {
	// SendPacket submits one packet. A nil packet flushes the decoder. The
	// packet's data may be reused by the caller once SendPacket returns.
	SendPacket(p *media.Packet) error
	// ReceiveFrame returns the next decoded image, ErrAgain when none is
	// ready, or ErrEOF after a drained flush.
	ReceiveFrame() (image.Image, error)
}

// EncoderConfig selects and tunes an encoder.
type EncoderConfig struct {
	Codec     media.CodecID
	Width     int
	Height    int
	FrameRate int
	// Quality is the JPEG quality, 1 to 100. Zero uses the default.
	Quality int
}

// NewEncoder creates the encoder for cfg.Codec.
func NewEncoder(cfg EncoderConfig) (Encoder, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &Error{Op: "open encoder", Err: fmt.Errorf("%w: %dx%d", ErrFrameSize, cfg.Width, cfg.Height)}
	}
	if cfg.FrameRate <= 0 {
		return nil, &Error{Op: "open encoder", Err: fmt.Errorf("invalid frame rate %d", cfg.FrameRate)}
	}

	params := media.CodecParameters{
		CodecID:  cfg.Codec,
		Width:    cfg.Width,
		Height:   cfg.Height,
		TimeBase: media.Rational{Num: 1, Den: int32(cfg.FrameRate)},
	}

	switch cfg.Codec {
	case media.CodecMJPEG:
		return newMJPEGEncoder(params, cfg.Quality), nil
	case media.CodecRaw:
		return newRawEncoder(params), nil
	default:
		return nil, &Error{Op: "open encoder", Err: fmt.Errorf("%w: %v", ErrUnsupportedCodec, cfg.Codec)}
	}
}

// NewDecoder creates the decoder matching the handshake parameters.
func NewDecoder(params media.CodecParameters) (Decoder, error) {
	switch params.CodecID {
	case media.CodecMJPEG:
		return &mjpegDecoder{}, nil
	case media.CodecRaw:
		if params.Width <= 0 || params.Height <= 0 {
			return nil, &Error{Op: "open decoder", Err: fmt.Errorf("%w: %dx%d", ErrFrameSize, params.Width, params.Height)}
		}
		return &rawDecoder{width: params.Width, height: params.Height}, nil
	default:
		return nil, &Error{Op: "open decoder", Err: fmt.Errorf("%w: %v", ErrUnsupportedCodec, params.CodecID)}
	}
}

// packetQueue is the output side shared by the encoders and decoders: a
// FIFO plus a flushed flag.
type packetQueue[T any] struct {
	items   []T
	flushed bool
}

func (q *packetQueue[T]) push(v T) { q.items = append(q.items, v) }

func (q *packetQueue[T]) pop() (T, error) {
	var zero T
	if len(q.items) == 0 {
		if q.flushed {
			return zero, ErrEOF
		}
		return zero, ErrAgain
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, nil
}

func checkFrameSize(f *media.Frame, w, h int) error {
	if f.Image == nil {
		return &Error{Op: "send frame", Err: errors.New("frame has no image")}
	}
	b := f.Image.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return &Error{Op: "send frame", Err: fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w, h)}
	}
	return nil
}
