package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zsiec/screenshare/internal/action"
	"github.com/zsiec/screenshare/internal/codec"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/transport"
	"github.com/zsiec/screenshare/internal/wire"
)

// ErrHandshakeFailed reports that the codec parameters could not be read
// from the server. The connect attempt is abandoned.
var ErrHandshakeFailed = errors.New("player: handshake failed")

// statsInterval is how often the statistics line is refreshed.
const statsInterval = time.Second

// Pump runs one streaming session over a single connection: receive a
// packet, decode it, publish the frame, send queued actions, repeat.
type Pump struct {
	Addr string
	// IdleTimeout turns a silent server into a read error. Zero disables it.
	IdleTimeout time.Duration
	// Actions is drained once per iteration and sent on the same
	// connection the packets arrive on.
	Actions *action.Queue
	Sink    FrameSink
	Info    *InfoLog
	// OnStreaming is called once the handshake is received and the decoder
	// is ready.
	OnStreaming func(media.CodecParameters)
	Log         *slog.Logger

	now func() time.Time
}

// Run connects, performs the handshake and streams until ctx is cancelled
// or the connection ends. Cancellation is checked once per iteration,
// before the next read; a read in progress is never interrupted. It
// returns nil after cancellation and transport.ErrConnectionClosed when the
// server closed the stream cleanly.
func (p *Pump) Run(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "playback", "addr", p.Addr)
	now := p.now
	if now == nil {
		now = time.Now
	}

	conn, err := transport.Dial(ctx, p.Addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", p.Addr, err)
	}
	defer conn.Close()

	params, err := wire.ReadHandshake(conn)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	dec, err := codec.NewDecoder(params)
	if err != nil {
		return err
	}

	log.Info("stream started",
		"codec", params.CodecID,
		"width", params.Width,
		"height", params.Height,
		"fps", params.FrameRate())
	p.info(fmt.Sprintf("Stream started: %s %dx%d @ %.2f fps", params.CodecID, params.Width, params.Height, params.FrameRate()))
	if p.OnStreaming != nil {
		p.OnStreaming(params)
	}

	st := newStreamStats(params, now)
	pr := wire.NewPacketReader(conn)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if p.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(now().Add(p.IdleTimeout))
		}
		h, pkt, err := pr.ReadPacket()
		if err != nil {
			return err
		}

		if err := p.decode(dec, pkt); err != nil {
			return err
		}
		if line, ok := st.add(h, pkt.Size()); ok {
			log.Debug("stats", "line", line)
			p.info(line)
		}

		if p.Actions != nil {
			for _, a := range p.Actions.Drain() {
				if err := wire.WriteAction(conn, a); err != nil {
					return err
				}
			}
		}
	}
}

func (p *Pump) decode(dec codec.Decoder, pkt *media.Packet) error {
	if err := dec.SendPacket(pkt); err != nil {
		return err
	}
	for {
		img, err := dec.ReceiveFrame()
		switch {
		case errors.Is(err, codec.ErrAgain), errors.Is(err, codec.ErrEOF):
			return nil
		case err != nil:
			return err
		}
		if p.Sink != nil {
			p.Sink.SetFrame(img)
		}
	}
}

func (p *Pump) info(line string) {
	if p.Info != nil {
		p.Info.AddLine(line)
	}
}

// streamStats produces the once-per-interval statistics line.
type streamStats struct {
	params  media.CodecParameters
	now     func() time.Time
	bitrate *metrics.RateMeter
	since   time.Time
	frames  int
	latency time.Duration
}

func newStreamStats(params media.CodecParameters, now func() time.Time) *streamStats {
	br := metrics.NewRateMeter(metrics.DefaultRateWindow)
	return &streamStats{
		params:  params,
		now:     now,
		bitrate: br,
		since:   now(),
	}
}

// add accounts for one packet and returns a new line once per interval.
func (s *streamStats) add(h wire.PacketHeader, size int) (string, bool) {
	t := s.now()
	s.frames++
	s.bitrate.Add(float64(size) * 8)
	s.latency = h.Latency(t)

	elapsed := t.Sub(s.since)
	if elapsed < statsInterval {
		return "", false
	}
	fps := float64(s.frames) / elapsed.Seconds()
	s.frames = 0
	s.since = t

	return fmt.Sprintf("%dx%d | %.1f fps | %.2f Mbit/s | latency %d ms",
		s.params.Width, s.params.Height, fps, s.bitrate.Rate()/1e6, s.latency.Milliseconds()), true
}
