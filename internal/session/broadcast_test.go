package session

import (
	"bytes"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/screenshare/internal/capture"
	"github.com/zsiec/screenshare/internal/codec"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/metrics"
	"github.com/zsiec/screenshare/internal/transport"
	"github.com/zsiec/screenshare/internal/wire"
)

type readResult struct {
	h    wire.PacketHeader
	pkt  *media.Packet
	data []byte
	err  error
}

// readOne reads a single packet from conn in the background.
func readOne(conn net.Conn) <-chan readResult {
	ch := make(chan readResult, 1)
	go func() {
		h, p, err := wire.ReadPacket(conn)
		res := readResult{h: h, pkt: p, err: err}
		if p != nil {
			res.data = bytes.Clone(p.Data)
		}
		ch <- res
	}()
	return ch
}

func TestBroadcastDeliversIdenticalBytes(t *testing.T) {
	t.Parallel()
	m := metrics.New(nil)
	b := NewBroadcaster(time.Second, m, testLogger())
	sent := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return sent }

	c1, p1 := pipeClient(t, 1)
	c2, p2 := pipeClient(t, 2)
	r1, r2 := readOne(p1), readOne(p2)

	pkt := &media.Packet{PTS: 3000, DTS: 3000, Duration: 3000, Flags: media.FlagKeyframe, Data: []byte("frame")}
	failures := b.Broadcast([]*Client{c1, c2}, wire.PacketHeader{EncoderPTS: 1}, pkt)
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}

	for i, ch := range []<-chan readResult{r1, r2} {
		res := <-ch
		if res.err != nil {
			t.Fatalf("client %d: %v", i+1, res.err)
		}
		if res.h.EncoderPTS != 1 || !res.h.SentAt.Equal(sent) {
			t.Errorf("client %d header = %+v", i+1, res.h)
		}
		if string(res.data) != "frame" || res.pkt.PTS != 3000 {
			t.Errorf("client %d packet = pts %d data %q", i+1, res.pkt.PTS, res.data)
		}
	}

	if got := c1.Stats().PacketsSent; got != 1 {
		t.Errorf("client 1 packets sent = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.PacketsSent); got != 2 {
		t.Errorf("packets sent metric = %v, want 2", got)
	}
}

func TestBroadcastReportsFailures(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(time.Second, nil, testLogger())

	c1, p1 := pipeClient(t, 1)
	c2, p2 := pipeClient(t, 2)
	c3, p3 := pipeClient(t, 3)
	p2.Close()
	r1, r3 := readOne(p1), readOne(p3)

	failures := b.Broadcast([]*Client{c1, c2, c3}, wire.PacketHeader{}, &media.Packet{Data: []byte{1, 2, 3}})
	if len(failures) != 1 || failures[0].ID != 2 {
		t.Fatalf("failures = %v, want only client 2", failures)
	}
	var ioErr *transport.IOError
	if !errors.As(failures[0].Err, &ioErr) {
		t.Errorf("failure error = %T %v, want *transport.IOError", failures[0].Err, failures[0].Err)
	}
	if res := <-r1; res.err != nil {
		t.Errorf("client 1: %v", res.err)
	}
	if res := <-r3; res.err != nil {
		t.Errorf("client 3: %v", res.err)
	}
}

func TestBroadcastSlowClientTimesOut(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(50*time.Millisecond, nil, testLogger())

	fast, pf := pipeClient(t, 1)
	slow, _ := pipeClient(t, 2)
	rf := readOne(pf)

	start := time.Now()
	failures := b.Broadcast([]*Client{fast, slow}, wire.PacketHeader{}, &media.Packet{Data: []byte("x")})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("broadcast took %v", elapsed)
	}
	if res := <-rf; res.err != nil {
		t.Fatalf("fast client: %v", res.err)
	}
	if len(failures) != 1 || failures[0].ID != 2 {
		t.Fatalf("failures = %v, want only client 2", failures)
	}
	if !errors.Is(failures[0].Err, os.ErrDeadlineExceeded) {
		t.Errorf("failure = %v, want deadline exceeded", failures[0].Err)
	}
}

func TestBroadcastNoClients(t *testing.T) {
	t.Parallel()
	b := NewBroadcaster(0, nil, nil)
	if f := b.Broadcast(nil, wire.PacketHeader{}, &media.Packet{}); f != nil {
		t.Errorf("failures = %v, want nil", f)
	}
}

func TestFanoutCycleEvictsOnlyBrokenClient(t *testing.T) {
	t.Parallel()

	src, err := capture.NewPattern(4, 4, 0)
	require.NoError(t, err)
	enc, err := codec.NewEncoder(codec.EncoderConfig{Codec: media.CodecRaw, Width: 4, Height: 4, FrameRate: 30})
	require.NoError(t, err)
	m := metrics.New(nil)
	s := NewServer(Config{FrameRate: 30, WriteTimeout: time.Second}, src, enc, m, testLogger())

	c1, p1 := pipeClient(t, 1)
	c2, p2 := pipeClient(t, 2)
	c3, p3 := pipeClient(t, 3)
	p2.Close()
	for _, c := range []*Client{c1, c2, c3} {
		require.NoError(t, s.Registry().Register(c))
	}

	r1, r3 := readOne(p1), readOne(p3)
	done, err := s.step()
	require.NoError(t, err)
	require.False(t, done)

	got1, got3 := <-r1, <-r3
	require.NoError(t, got1.err)
	require.NoError(t, got3.err)
	require.Equal(t, got1.data, got3.data, "clients received different payloads")
	require.Len(t, got1.data, 4*4*4)
	require.EqualValues(t, 0, got1.h.EncoderPTS)

	require.Equal(t, 2, s.Registry().Len())
	_, ok := s.Registry().Get(2)
	require.False(t, ok, "client 2 still registered")
	_, ok = s.Registry().Get(1)
	require.True(t, ok)
	_, ok = s.Registry().Get(3)
	require.True(t, ok)
	require.EqualValues(t, 1, testutil.ToFloat64(m.Evictions.WithLabelValues(metrics.ReasonWriteFailed)))

	// The next cycle reaches the survivors with the next timestamp.
	r1, r3 = readOne(p1), readOne(p3)
	_, err = s.step()
	require.NoError(t, err)
	got1, got3 = <-r1, <-r3
	require.NoError(t, got1.err)
	require.NoError(t, got3.err)
	require.EqualValues(t, 1, got1.h.EncoderPTS)
	require.EqualValues(t, 3000, got1.pkt.PTS, "packet pts in the 90kHz stream time base")
}
