package session

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/screenshare/internal/action"
	"github.com/zsiec/screenshare/internal/capture"
	"github.com/zsiec/screenshare/internal/codec"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/pacing"
	"github.com/zsiec/screenshare/internal/transport"
	"github.com/zsiec/screenshare/internal/wire"
)

// Config tunes a Server.
type Config struct {
	// Listen is the bind address, e.g. "tcp://0.0.0.0:7000".
	Listen string
	// FrameRate is the target number of producer cycles per second.
	FrameRate int
	// WriteTimeout bounds every handshake and fanout write.
	WriteTimeout time.Duration
	// ShutdownLinger is how long shutdown waits for clients to close their
	// side after the stream ends.
	ShutdownLinger time.Duration
	// SkipWhenIdle stops capturing and encoding while no client is
	// registered.
	SkipWhenIdle bool
}

// Server runs the producer loop and the session acceptor for one stream.
type Server struct {
	cfg       Config
	log       *slog.Logger
	source    capture.Interactor
	encoder   codec.Encoder
	params    media.CodecParameters
	converter *codec.Converter
	metrics   *metrics.Metrics
	pacer     *pacing.Scheduler

	registry    *Registry
	inbound     *action.Queue
	broadcaster *Broadcaster
	listener    transport.Listener
	acceptor    *Acceptor

	pts     int64
	frames  atomic.Int64
	started atomic.Int64
}

// NewServer creates a Server streaming from source through encoder. The
// encoder is owned by the producer loop from here on. If log is nil,
// slog.Default() is used; a nil m records into unregistered instruments.
func NewServer(cfg Config, source capture.Interactor, encoder codec.Encoder, m *metrics.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	params := encoder.Parameters()
	return &Server{
		cfg:         cfg,
		log:         log.With("component", "server"),
		source:      source,
		encoder:     encoder,
		params:      params,
		converter:   codec.NewConverter(params.Width, params.Height),
		metrics:     m,
		pacer:       pacing.NewScheduler(float64(cfg.FrameRate)),
		registry:    NewRegistry(),
		inbound:     action.NewQueue(),
		broadcaster: NewBroadcaster(cfg.WriteTimeout, m, log),
	}
}

// Listen binds the configured address. Failure here is fatal for startup.
func (s *Server) Listen() error {
	l, err := transport.Listen(s.cfg.Listen)
	if err != nil {
		return err
	}
	s.listener = l
	s.acceptor = NewAcceptor(AcceptorConfig{
		Listener:         l,
		Registry:         s.registry,
		Inbound:          s.inbound,
		Params:           s.params,
		HandshakeTimeout: s.cfg.WriteTimeout,
		Metrics:          s.metrics,
	}, s.log)
	return nil
}

// Addr returns the bound address. Only valid after Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr()
}

// Registry returns the client registry.
func (s *Server) Registry() *Registry { return s.registry }

// Params returns the codec parameters sent in every handshake.
func (s *Server) Params() media.CodecParameters { return s.params }

// Run accepts clients and streams to them until ctx is cancelled or the
// source ends, then shuts every client down. It returns nil on a normal
// stop and the codec error if the encoder failed.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.started.Store(time.Now().UnixNano())
	s.log.Info("streaming",
		"addr", s.Addr(),
		"codec", s.params.CodecID,
		"width", s.params.Width,
		"height", s.params.Height,
		"fps", s.cfg.FrameRate)

	g, gctx := errgroup.WithContext(ctx)
	acceptCtx, stopAccept := context.WithCancel(gctx)
	defer stopAccept()

	g.Go(func() error {
		return s.acceptor.Run(acceptCtx)
	})
	g.Go(func() error {
		defer stopAccept()
		return s.produce(gctx)
	})

	err := g.Wait()
	s.shutdown()
	return err
}

// produce is the producer loop: one capture, encode and fanout per paced
// cycle, followed by dispatch of the actions received since the last one.
func (s *Server) produce(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		cycle := s.pacer.Start()
		done, err := s.step()
		s.metrics.CycleDuration.Observe(cycle.Elapsed().Seconds())
		if err != nil {
			s.log.Error("stream failed", "error", err)
			return err
		}
		if done {
			s.log.Info("end of stream", "frames", s.frames.Load())
			return nil
		}

		if err := cycle.Wait(ctx); err != nil {
			return nil
		}
	}
}

// step runs one producer cycle. It reports true once the encoder has been
// flushed and fully drained.
func (s *Server) step() (bool, error) {
	defer s.dispatchActions()

	if s.cfg.SkipWhenIdle && s.registry.Len() == 0 {
		return false, nil
	}

	grabbed, err := s.source.Grab()
	switch {
	case errors.Is(err, capture.ErrExhausted):
		s.log.Debug("source exhausted, flushing encoder")
		if err := s.encoder.SendFrame(nil); err != nil {
			return false, err
		}
	case err != nil:
		s.metrics.CaptureFailures.Inc()
		s.log.Debug("capture failed", "error", err)
		return false, nil
	default:
		img := s.converter.Convert(grabbed.Image())
		if err := s.encoder.SendFrame(&media.Frame{PTS: s.pts, Image: img}); err != nil {
			return false, err
		}
		s.pts++
	}

	return s.drainEncoder()
}

// drainEncoder broadcasts every packet the encoder has ready.
func (s *Server) drainEncoder() (bool, error) {
	for {
		pkt, err := s.encoder.ReceivePacket()
		switch {
		case errors.Is(err, codec.ErrAgain):
			return false, nil
		case errors.Is(err, codec.ErrEOF):
			return true, nil
		case err != nil:
			return false, err
		}

		s.frames.Add(1)
		s.metrics.PacketsEncoded.Inc()

		h := wire.PacketHeader{EncoderPTS: pkt.PTS}
		pkt.RescaleTS(s.params.TimeBase, media.StreamTimeBase)

		for _, f := range s.broadcaster.Broadcast(s.registry.Snapshot(), h, pkt) {
			s.evict(f.ID, metrics.ReasonWriteFailed, f.Err)
		}
	}
}

func (s *Server) dispatchActions() {
	for _, a := range s.inbound.Drain() {
		ok := s.source.HandleAction(a)
		s.metrics.RecordActionHandled(ok)
		s.log.Debug("action", "action", a, "handled", ok)
	}
}

// Kick closes and removes a client on request.
func (s *Server) Kick(id uint64) bool {
	return s.evict(id, metrics.ReasonKicked, nil)
}

// evict removes id from the registry and closes its connection. It is safe
// to call for ids that are already gone.
func (s *Server) evict(id uint64, reason string, cause error) bool {
	c, ok := s.registry.Remove(id)
	if !ok {
		return false
	}
	c.Conn.Close()
	s.metrics.RecordEviction(reason)

	attrs := []any{"client", id, "reason", reason, "clients", s.registry.Len()}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	s.log.Info("client removed", attrs...)
	return true
}

// shutdown half-closes every client so they read a clean end of stream,
// gives them ShutdownLinger to hang up, then closes what is left.
func (s *Server) shutdown() {
	clients := s.registry.Snapshot()
	for _, c := range clients {
		if err := c.Conn.CloseWrite(); err != nil {
			s.log.Debug("close write", "client", c.ID, "error", err)
		}
	}
	if len(clients) > 0 && s.cfg.ShutdownLinger > 0 {
		if !s.acceptor.WaitPumps(s.cfg.ShutdownLinger) {
			s.log.Debug("clients did not close in time", "linger", s.cfg.ShutdownLinger)
		}
	}
	for _, c := range clients {
		s.evict(c.ID, metrics.ReasonShutdown, nil)
	}
	s.acceptor.pumps.Wait()
	s.log.Info("server stopped", "frames", s.frames.Load())
}

// StreamInfo summarises the stream for the status API.
type StreamInfo struct {
	Codec         string  `json:"codec"`
	PixelFormat   string  `json:"pixelFormat"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	FrameRate     float64 `json:"frameRate"`
	TimeBase      string  `json:"timeBase"`
	Addr          string  `json:"addr"`
	Clients       int     `json:"clients"`
	FramesEncoded int64   `json:"framesEncoded"`
	UptimeMs      int64   `json:"uptimeMs,omitempty"`
}

// StreamInfo returns the current stream summary.
func (s *Server) StreamInfo() StreamInfo {
	info := StreamInfo{
		Codec:         s.params.CodecID.String(),
		PixelFormat:   s.params.PixelFormat.String(),
		Width:         s.params.Width,
		Height:        s.params.Height,
		FrameRate:     s.params.FrameRate(),
		TimeBase:      s.params.TimeBase.String(),
		Addr:          s.Addr(),
		Clients:       s.registry.Len(),
		FramesEncoded: s.frames.Load(),
	}
	if ns := s.started.Load(); ns != 0 {
		info.UptimeMs = time.Since(time.Unix(0, ns)).Milliseconds()
	}
	return info
}
