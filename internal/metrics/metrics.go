package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket connection metrics
var (
	// ConnectionsActive tracks the current number of registered connections
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of registered WebSocket connections",
		},
	)

	// ConnectionsTotal tracks total accepted connections
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total accepted WebSocket connections",
		},
	)

	// ClassificationsTotal tracks client identifications by declared role
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_classifications_total",
			Help: "Client role classifications by declared name and result",
		},
		[]string{"role", "result"},
	)

	// MessageSendDuration tracks per-message write latency
	MessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// PingFailures tracks failed liveness probe writes
	PingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket ping writes",
		},
	)

	// LivenessEvictionsTotal tracks connections evicted by the liveness monitor
	LivenessEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_liveness_evictions_total",
			Help: "Total connections evicted after missing two liveness probes",
		},
	)
)

// Broadcast metrics
var (
	// BroadcastsTotal tracks broadcast events by type
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_events_total",
			Help: "Total broadcast events by event type",
		},
		[]string{"event"},
	)

	// BroadcastSendFailures tracks per-recipient send failures
	BroadcastSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_send_failures_total",
			Help: "Total per-recipient broadcast send failures",
		},
	)

	// HistoryReplaysTotal tracks history replays sent to installation clients
	HistoryReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_history_replays_total",
			Help: "Total history replays sent to installation clients",
		},
	)
)

// Submission metrics
var (
	// UploadsTotal tracks intake results
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total upload submissions by result",
		},
		[]string{"result"},
	)

	// ReviewDecisionsTotal tracks moderation decisions
	ReviewDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_decisions_total",
			Help: "Total moderation decisions by outcome",
		},
		[]string{"decision"},
	)

	// DeletionsTotal tracks submission deletions
	DeletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "submission_deletions_total",
			Help: "Total submission deletions",
		},
	)
)
