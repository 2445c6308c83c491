package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/room"
)

const metricsNamespace = "cocanvas"

// Metrics holds the Prometheus instruments for the sync core.
type Metrics struct {
	ActiveRooms         prometheus.Gauge
	ActiveSessions      prometheus.Gauge
	RoomsCreated        prometheus.Counter
	RoomsReclaimed      prometheus.Counter
	UpdatesApplied      prometheus.Counter
	RejectedConnections prometheus.Counter
}

// NewMetrics registers the co-canvas metrics. registry may be nil to use
// the default Prometheus registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_rooms",
			Help:      "Number of live rooms in the registry",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Number of attached WebSocket sessions",
		}),
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rooms_created_total",
			Help:      "Total rooms created",
		}),
		RoomsReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rooms_reclaimed_total",
			Help:      "Total empty rooms reclaimed",
		}),
		UpdatesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_updates_total",
			Help:      "Total document updates merged into room state",
		}),
		RejectedConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_connections_total",
			Help:      "Total WebSocket connections rejected at the gateway",
		}),
	}
}

// RegistryHooks adapts the metrics to the registry's lifecycle events.
func (m *Metrics) RegistryHooks() room.Hooks {
	return room.Hooks{
		RoomCreated: func(string) {
			m.ActiveRooms.Inc()
			m.RoomsCreated.Inc()
		},
		RoomReclaimed: func(string) {
			m.ActiveRooms.Dec()
			m.RoomsReclaimed.Inc()
		},
		SessionAttached: func(string) {
			m.ActiveSessions.Inc()
		},
		SessionDetached: func(string) {
			m.ActiveSessions.Dec()
		},
		DataChanged: func(string) {
			m.UpdatesApplied.Inc()
		},
	}
}
