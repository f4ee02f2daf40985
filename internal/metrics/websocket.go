package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dispatch outcome labels.
const (
	OutcomeDelivered = "delivered"
	OutcomeMissing   = "missing"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// WebSocketMetrics holds Prometheus metrics for screen connections.
type WebSocketMetrics struct {
	ActiveConnections prometheus.Gauge
	RegisteredScreens prometheus.Gauge
	InboundMessages   *prometheus.CounterVec
	DispatchOutcomes  *prometheus.CounterVec
	PresenceUpdates   *prometheus.CounterVec
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of open screen WebSocket connections.",
		}),
		RegisteredScreens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "registered_screens",
			Help:      "Number of device keys currently mapped to a connection.",
		}),
		InboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "inbound_messages_total",
			Help:      "Inbound screen messages by type.",
		}, []string{"type"}),
		DispatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "dispatch_targets_total",
			Help:      "Per-target dispatch results by outcome.",
		}, []string{"outcome"}),
		PresenceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "presence_updates_total",
			Help:      "Presence writes applied to the screen store by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.ActiveConnections, m.RegisteredScreens, m.InboundMessages, m.DispatchOutcomes, m.PresenceUpdates)
	return m
}
