// Package metrics exposes the server's Prometheus instruments and the
// rolling rate meters the client uses for its statistics line.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Eviction reasons used as label values.
const (
	ReasonWriteFailed = "write_failed"
	ReasonShutdown    = "shutdown"
	ReasonKicked      = "kicked"
)

// Metrics holds every server-side instrument.
type Metrics struct {
	// Connections
	ActiveClients     prometheus.Gauge
	ClientsAccepted   prometheus.Counter
	HandshakeFailures prometheus.Counter
	Evictions         *prometheus.CounterVec

	// Fanout
	PacketsEncoded  prometheus.Counter
	PacketsSent     prometheus.Counter
	BytesSent       prometheus.Counter
	CycleDuration   prometheus.Histogram
	CaptureFailures prometheus.Counter

	// Remote control
	ActionsReceived prometheus.Counter
	ActionsHandled  *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg
// leaves them unregistered, which suits tests that only read values back.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_server_active_clients",
			Help: "Number of registered client connections",
		}),
		ClientsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_clients_accepted_total",
			Help: "Total number of clients that completed the handshake",
		}),
		HandshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_handshake_failures_total",
			Help: "Total number of connections dropped during the handshake",
		}),
		Evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_server_evictions_total",
			Help: "Total number of clients removed, by reason",
		}, []string{"reason"}),
		PacketsEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_packets_encoded_total",
			Help: "Total number of packets produced by the encoder",
		}),
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_packets_sent_total",
			Help: "Total number of packet deliveries across all clients",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_bytes_sent_total",
			Help: "Total bytes written to clients",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screenshare_server_cycle_duration_seconds",
			Help:    "Time spent capturing, encoding and fanning out one frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25},
		}),
		CaptureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_capture_failures_total",
			Help: "Total number of cycles where the capture source returned no frame",
		}),
		ActionsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenshare_server_actions_received_total",
			Help: "Total number of actions read from clients",
		}),
		ActionsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_server_actions_handled_total",
			Help: "Total number of actions dispatched to the interactor, by result",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ActiveClients,
			m.ClientsAccepted,
			m.HandshakeFailures,
			m.Evictions,
			m.PacketsEncoded,
			m.PacketsSent,
			m.BytesSent,
			m.CycleDuration,
			m.CaptureFailures,
			m.ActionsReceived,
			m.ActionsHandled,
		)
	}
	return m
}

// RecordAccept records a client that completed the handshake.
func (m *Metrics) RecordAccept() {
	m.ClientsAccepted.Inc()
	m.ActiveClients.Inc()
}

// RecordEviction records a client leaving the registry.
func (m *Metrics) RecordEviction(reason string) {
	m.Evictions.WithLabelValues(reason).Inc()
	m.ActiveClients.Dec()
}

// RecordDelivery records one packet written to one client.
func (m *Metrics) RecordDelivery(bytes int) {
	m.PacketsSent.Inc()
	m.BytesSent.Add(float64(bytes))
}

// RecordActionHandled records the interactor's verdict on one action.
func (m *Metrics) RecordActionHandled(ok bool) {
	result := "ignored"
	if ok {
		result = "applied"
	}
	m.ActionsHandled.WithLabelValues(result).Inc()
}
