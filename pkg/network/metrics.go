package network

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "connection",
			Name:      "frames_received_total",
			Help:      "Frames received from peers, by opcode.",
		},
		[]string{"opcode"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "connection",
			Name:      "frames_sent_total",
			Help:      "Frames sent to peers, by opcode.",
		},
		[]string{"opcode"},
	)
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "quill",
			Subsystem: "connection",
			Name:      "active",
			Help:      "Connections currently open.",
		},
	)
	requestFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "connection",
			Name:      "request_failures_total",
			Help:      "Delegated requests that completed with an error.",
		},
	)
)

// RegisterMetrics registers the connection collectors with the default
// prometheus registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesReceived,
			framesSent,
			activeConnections,
			requestFailures,
		)
	})
}
