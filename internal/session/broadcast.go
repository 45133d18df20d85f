package session

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/wire"
)

// Failure is a client whose write failed during a broadcast.
type Failure struct {
	ID  uint64
	Err error
}

// Broadcaster writes one serialized packet to many clients at once.
type Broadcaster struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration
	// now stamps SentAt; deadlines always use the wall clock.
	now func() time.Time
}

// NewBroadcaster creates a Broadcaster. Each write is bounded by
// writeTimeout; zero means no deadline. If log is nil, slog.Default() is
// used; m may be nil.
func NewBroadcaster(writeTimeout time.Duration, m *metrics.Metrics, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		log:          log.With("component", "broadcaster"),
		metrics:      m,
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

// Broadcast serializes h and p once, stamps the send time, and writes the
// same bytes to every client concurrently. It returns after every write has
// settled, reporting the failed ones in snapshot order. A failing client
// never delays the others beyond starting its write.
func (b *Broadcaster) Broadcast(clients []*Client, h wire.PacketHeader, p *media.Packet) []Failure {
	if len(clients) == 0 {
		return nil
	}

	if h.SentAt.IsZero() {
		h.SentAt = b.now()
	}
	data := wire.EncodePacket(h, p)

	errs := make([]error, len(clients))
	var g errgroup.Group
	for i, c := range clients {
		g.Go(func() error {
			if b.writeTimeout > 0 {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
			}
			if _, err := c.Conn.Write(data); err != nil {
				errs[i] = err
				return nil
			}
			c.packetsSent.Add(1)
			c.bytesSent.Add(int64(len(data)))
			if b.metrics != nil {
				b.metrics.RecordDelivery(len(data))
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{ID: clients[i].ID, Err: err})
		}
	}
	if len(failures) > 0 {
		b.log.Debug("broadcast finished with failures",
			"encoder_pts", h.EncoderPTS,
			"clients", len(clients),
			"failed", len(failures))
	}
	return failures
}
