package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordAccept()
	m.RecordAccept()
	m.RecordEviction(ReasonWriteFailed)
	m.RecordDelivery(100)
	m.RecordDelivery(50)
	m.RecordActionHandled(true)
	m.RecordActionHandled(false)
	m.RecordActionHandled(false)

	if got := testutil.ToFloat64(m.ActiveClients); got != 1 {
		t.Errorf("active clients = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ClientsAccepted); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Evictions.WithLabelValues(ReasonWriteFailed)); got != 1 {
		t.Errorf("evictions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesSent); got != 150 {
		t.Errorf("bytes sent = %v, want 150", got)
	}
	if got := testutil.ToFloat64(m.PacketsSent); got != 2 {
		t.Errorf("packets sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ActionsHandled.WithLabelValues("ignored")); got != 2 {
		t.Errorf("ignored actions = %v, want 2", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount = %d, %v", n, err)
	}
}

func TestNewWithoutRegistry(t *testing.T) {
	t.Parallel()
	m := New(nil)
	m.RecordAccept()
	if got := testutil.ToFloat64(m.ActiveClients); got != 1 {
		t.Errorf("active clients = %v, want 1", got)
	}
}

func TestRateMeter(t *testing.T) {
	t.Parallel()

	clock := time.Unix(0, 0)
	r := NewRateMeter(2)
	r.now = func() time.Time { return clock }
	r.last = clock

	r.Add(1000)
	if got := r.Rate(); got != 0 {
		t.Fatalf("rate before a second = %v, want 0", got)
	}

	clock = clock.Add(time.Second)
	r.Add(1000)
	if got := r.Rate(); got != 2000 {
		t.Fatalf("rate after first sample = %v, want 2000", got)
	}

	clock = clock.Add(time.Second)
	r.Add(4000)
	if got := r.Rate(); got != 3000 {
		t.Fatalf("rate after second sample = %v, want 3000", got)
	}

	// The window holds two samples, so the first one drops out.
	clock = clock.Add(2 * time.Second)
	r.Add(0)
	if got := r.Rate(); got != 4000.0/3 {
		t.Fatalf("rate after third sample = %v, want %v", got, 4000.0/3)
	}
}
