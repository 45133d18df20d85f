package codec

import (
	"fmt"
	"image"

	"github.com/zsiec/screenshare/internal/media"
)

// rawEncoder sends tightly packed RGBA pixels unchanged.
type rawEncoder struct {
	params media.CodecParameters
	out    packetQueue[*media.Packet]
}

func newRawEncoder(params media.CodecParameters) *rawEncoder {
	params.PixelFormat = media.PixelFormatRGBA
	params.BitRate = int64(params.Width) * int64(params.Height) * 32 * int64(params.TimeBase.Den)
	return &rawEncoder{params: params}
}

func (e *rawEncoder) Parameters() media.CodecParameters { return e.params }

func (e *rawEncoder) SendFrame(f *media.Frame) error {
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

	w, h := e.params.Width, e.params.Height
	rowLen := w * 4
	data := make([]byte, rowLen*h)
	img := f.Image
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(data[y*rowLen:(y+1)*rowLen], img.Pix[off:off+rowLen])
	}

	e.out.push(&media.Packet{
		PTS:      f.PTS,
		DTS:      f.PTS,
		Duration: 1,
		Flags:    media.FlagKeyframe,
		Data:     data,
	})
	return nil
}

func (e *rawEncoder) ReceivePacket() (*media.Packet, error) {
	return e.out.pop()
}

type rawDecoder struct {
	width, height int
	out           packetQueue[image.Image]
}

func (d *rawDecoder) SendPacket(p *media.Packet) error {
	if d.out.flushed {
		return &Error{Op: "send packet", Err: ErrEOF}
	}
	if p == nil {
		d.out.flushed = true
		return nil
	}
	want := d.width * d.height * 4
	if len(p.Data) != want {
		return &Error{Op: "decode", Err: fmt.Errorf("%w: %d bytes, want %d", ErrCorruptPacket, len(p.Data), want)}
	}
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	copy(img.Pix, p.Data)
	d.out.push(img)
	return nil
}

func (d *rawDecoder) ReceiveFrame() (image.Image, error) {
	return d.out.pop()
}
