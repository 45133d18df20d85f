package codec

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/zsiec/screenshare/internal/media"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 70

// mjpegEncoder compresses every frame independently as a baseline JPEG, so
// every packet is a keyframe.
type mjpegEncoder struct {
	params  media.CodecParameters
	quality int
	buf     bytes.Buffer
	out     packetQueue[*media.Packet]
}

func newMJPEGEncoder(params media.CodecParameters, quality int) *mjpegEncoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	params.PixelFormat = media.PixelFormatYUV420P
	return &mjpegEncoder{params: params, quality: quality}
}

func (e *mjpegEncoder) Parameters() media.CodecParameters { return e.params }

func (e *mjpegEncoder) SendFrame(f *media.Frame) error {
	if e.out.flushed {
		return &Error{Op: "send frame", Err: ErrEOF}
	}
	if f == nil {
		e.out.flushed = true
		return nil
	}
	if err := checkFrameSize(f, e.params.Width, e.params.Height); err != nil {
		return err
	}

	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, f.Image, &jpeg.Options{Quality: e.quality}); err != nil {
		return &Error{Op: "encode", Err: err}
	}

	// The packet may be in flight to several clients while the next frame
	// is encoded, so it gets its own copy.
	data := bytes.Clone(e.buf.Bytes())
	e.out.push(&media.Packet{
		PTS:      f.PTS,
		DTS:      f.PTS,
		Duration: 1,
		Flags:    media.FlagKeyframe,
		Data:     data,
	})
	return nil
}

func (e *mjpegEncoder) ReceivePacket() (*media.Packet, error) {
	return e.out.pop()
}

type mjpegDecoder struct {
	out packetQueue[image.Image]
}

func (d *mjpegDecoder) SendPacket(p *media.Packet) error {
	if d.out.flushed {
		return &Error{Op: "send packet", Err: ErrEOF}
	}
	if p == nil {
		d.out.flushed = true
		return nil
	}
	img, err := jpeg.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return &Error{Op: "decode", Err: err}
	}
	d.out.push(img)
	return nil
}

func (d *mjpegDecoder) ReceiveFrame() (image.Image, error) {
	return d.out.pop()
}
