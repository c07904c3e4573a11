// Package metrics provides Prometheus metrics for the chat-api service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts REST requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks REST latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ActiveConnections tracks open realtime connections by role.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_realtime_active_connections",
			Help: "Number of currently open realtime connections",
		},
		[]string{"role"},
	)

	// ConnectionsRejected counts handshakes refused before a session existed.
	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_realtime_connections_rejected_total",
			Help: "Total number of realtime handshakes rejected",
		},
		[]string{"reason"},
	)

	// RoomJoins counts room joins by room kind.
	RoomJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_realtime_room_joins_total",
			Help: "Total number of room joins",
		},
		[]string{"kind", "result"},
	)

	// MessagesSent counts send attempts by outcome.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of send_message events by outcome",
		},
		[]string{"role", "status"},
	)

	// FanoutDeliveries counts new_message events queued to connections.
	FanoutDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_fanout_deliveries_total",
			Help: "Total number of new_message events queued to connections",
		},
	)

	// FanoutDropped counts deliveries dropped because a connection queue was full.
	FanoutDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_fanout_dropped_total",
			Help: "Total number of deliveries dropped for slow connections",
		},
	)

	// BrokerErrors counts publish and subscribe failures.
	BrokerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_broker_errors_total",
			Help: "Total number of fan-out broker errors",
		},
		[]string{"broker", "op"},
	)

	// SendDuration tracks append, touch and publish latency for accepted sends.
	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_send_duration_seconds",
			Help:    "Duration of the send pipeline for accepted messages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// RecordHTTPRequest records a completed REST request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordConnectionOpened increments the open connection gauge.
func RecordConnectionOpened(role string) {
	ActiveConnections.WithLabelValues(role).Inc()
}

// RecordConnectionClosed decrements the open connection gauge.
func RecordConnectionClosed(role string) {
	ActiveConnections.WithLabelValues(role).Dec()
}

// RecordSend records the outcome of a send_message event.
func RecordSend(role, status string) {
	MessagesSent.WithLabelValues(role, status).Inc()
}
