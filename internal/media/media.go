// Package media defines the value types that flow through the screenshare
// pipeline, from capture through encoding, the wire, and decoding.
package media

import (
	"fmt"
	"image"
	"math/big"
)

// CodecID identifies the compression scheme of a stream.
type CodecID uint32

// Supported codecs.
const (
	CodecNone  CodecID = 0
	CodecMJPEG CodecID = 1
	CodecRaw   CodecID = 2
)

func (c CodecID) String() string {
	switch c {
	case CodecMJPEG:
		return "mjpeg"
	case CodecRaw:
		return "raw"
	default:
		return fmt.Sprintf("codec(%d)", uint32(c))
	}
}

// ParseCodecID maps a configuration name to a CodecID.
func ParseCodecID(name string) (CodecID, error) {
	switch name {
	case "mjpeg", "jpeg":
		return CodecMJPEG, nil
	case "raw", "rgba":
		return CodecRaw, nil
	}
	return CodecNone, fmt.Errorf("unknown codec %q", name)
}

// PixelFormat tags the memory layout of decoded pixels.
type PixelFormat uint32

// Pixel formats understood by the converters.
const (
	PixelFormatNone    PixelFormat = 0
	PixelFormatRGBA    PixelFormat = 1
	PixelFormatBGRA    PixelFormat = 2
	PixelFormatYUV420P PixelFormat = 3
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatRGBA:
		return "rgba"
	case PixelFormatBGRA:
		return "bgra"
	case PixelFormatYUV420P:
		return "yuv420p"
	default:
		return fmt.Sprintf("pixfmt(%d)", uint32(p))
	}
}

// Rational is a time base or frame rate expressed as Num/Den.
type Rational struct {
	Num int32
	Den int32
}

// Float returns the rational as a float64, or 0 for a zero denominator.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns Den/Num.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Rescale converts ts from time base from into time base to, rounding to
// the nearest integer (halfway cases away from zero).
func Rescale(ts int64, from, to Rational) int64 {
	if from == to || from.Den == 0 || to.Num == 0 {
		return ts
	}
	num := new(big.Int).Mul(big.NewInt(ts), big.NewInt(int64(from.Num)*int64(to.Den)))
	den := big.NewInt(int64(from.Den) * int64(to.Num))
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	half := new(big.Int).Quo(den, big.NewInt(2))
	if num.Sign() < 0 {
		num.Sub(num, half)
	} else {
		num.Add(num, half)
	}
	return num.Quo(num, den).Int64()
}

// StreamTimeBase is the consumer-neutral time base packets are rescaled to
// before they are put on the wire.
var StreamTimeBase = Rational{Num: 1, Den: 90000}

// CodecParameters describes how to configure a decoder for a stream. It is
// sent once per connection, before any packet.
type CodecParameters struct {
	CodecID     CodecID
	PixelFormat PixelFormat
	Width       int
	Height      int
	TimeBase    Rational
	BitRate     int64
	ExtraData   []byte
}

// FrameRate returns the reciprocal of the time base.
func (p CodecParameters) FrameRate() float64 {
	return p.TimeBase.Invert().Float()
}

// PacketFlags carries per-packet boolean attributes.
type PacketFlags uint32

// FlagKeyframe marks a packet that decodes without reference to earlier ones.
const FlagKeyframe PacketFlags = 1 << 0

// Packet is one compressed frame. Data is owned by whoever produced the
// packet; receivers that reuse buffers document how long it stays valid.
type Packet struct {
	PTS         int64
	DTS         int64
	Duration    int64
	Flags       PacketFlags
	StreamIndex int32
	Data        []byte
}

// Size returns the payload length.
func (p *Packet) Size() int {
	return len(p.Data)
}

// IsKeyframe reports whether FlagKeyframe is set.
func (p *Packet) IsKeyframe() bool {
	return p.Flags&FlagKeyframe != 0
}

// RescaleTS rescales PTS, DTS and Duration from one time base to another.
func (p *Packet) RescaleTS(from, to Rational) {
	p.PTS = Rescale(p.PTS, from, to)
	p.DTS = Rescale(p.DTS, from, to)
	p.Duration = Rescale(p.Duration, from, to)
}

// Frame is one uncompressed picture handed to an encoder.
type Frame struct {
	PTS   int64
	Image *image.RGBA
}

// GrabbedFrame is a raw capture straight from a screen source, before
// pixel format conversion.
type GrabbedFrame struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
	Data        []byte
	LineSize    int
}

// Image wraps the grabbed pixels as an image without copying. BGRA data is
// swizzled in place to RGBA first.
func (g *GrabbedFrame) Image() *image.RGBA {
	if g.PixelFormat == PixelFormatBGRA {
		for y := 0; y < g.Height; y++ {
			row := g.Data[y*g.LineSize : y*g.LineSize+g.Width*4]
			for i := 0; i+3 < len(row); i += 4 {
				row[i], row[i+2] = row[i+2], row[i]
			}
		}
		g.PixelFormat = PixelFormatRGBA
	}
	return &image.RGBA{
		Pix:    g.Data,
		Stride: g.LineSize,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}
