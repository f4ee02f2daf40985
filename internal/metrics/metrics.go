package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "signage"

// Registry bundles the metric sets used by the server.
type Registry struct {
	Registry  *prometheus.Registry
	WebSocket *WebSocketMetrics
	HTTP      *HTTPMetrics
}

// New creates a fresh registry with Go runtime and process collectors plus the
// application metrics.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		Registry:  reg,
		WebSocket: NewWebSocketMetrics(reg),
		HTTP:      NewHTTPMetrics(reg),
	}
}
