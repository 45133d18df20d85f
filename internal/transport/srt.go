package transport

import (
	"bufio"
	"context"
	"fmt"
	"time"

	srtgo "github.com/zsiec/srtgo"
)

// srtPayloadSize is the largest payload a single SRT live-mode message
// carries.
const srtPayloadSize = 1316

// srtReadBufferSize buffers reads so that small fixed-size frames can be
// read out of larger SRT messages.
const srtReadBufferSize = srtPayloadSize * 10

// srtLatencyNs is the SRT latency setting in nanoseconds (120ms).
const srtLatencyNs = 120_000_000

// srtDialTimeout bounds a dial when ctx carries no deadline.
const srtDialTimeout = 10 * time.Second

// srtStreamID is announced by callers; listeners reject peers without one.
const srtStreamID = "screenshare"

func newSRTConn(c *srtgo.Conn) *Conn {
	return &Conn{
		rwc:    c,
		r:      bufio.NewReaderSize(c, srtReadBufferSize),
		remote: c.RemoteAddr().String(),
		scheme: SchemeSRT,
		chunk:  srtPayloadSize,
	}
}

type srtListener struct {
	accept func() (*srtgo.Conn, error)
	close  func()
	addr   string
}

func listenSRT(hostport string) (*srtListener, error) {
	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs

	l, err := srtgo.Listen(hostport, cfg)
	if err != nil {
		return nil, fmt.Errorf("SRT listen on %s: %w", hostport, err)
	}
	l.SetAcceptRejectFunc(func(req srtgo.ConnRequest) srtgo.RejectReason {
		if req.StreamID == "" {
			return srtgo.RejPeer
		}
		return 0
	})
	return &srtListener{
		accept: l.Accept,
		close:  func() { l.Close() },
		addr:   hostport,
	}, nil
}

func (s *srtListener) Accept() (*Conn, error) {
	c, err := s.accept()
	if err != nil {
		return nil, err
	}
	return newSRTConn(c), nil
}

func (s *srtListener) Close() error {
	s.close()
	return nil
}

func (s *srtListener) Addr() string { return SchemeSRT + "://" + s.addr }

func dialSRT(ctx context.Context, hostport string) (*Conn, error) {
	type dialResult struct {
		conn *srtgo.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	cfg := srtgo.DefaultConfig()
	cfg.Latency = srtLatencyNs
	cfg.StreamID = srtStreamID

	go func() {
		conn, err := srtgo.Dial(hostport, cfg)
		ch <- dialResult{conn, err}
	}()

	timer := time.NewTimer(srtDialTimeout)
	defer timer.Stop()

	abandon := func() {
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, &IOError{Op: "dial", Err: res.err}
		}
		return newSRTConn(res.conn), nil
	case <-timer.C:
		abandon()
		return nil, &IOError{Op: "dial", Err: fmt.Errorf("SRT dial timed out after %s", srtDialTimeout)}
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	}
}
