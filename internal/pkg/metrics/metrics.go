/*
Package metrics exposes Prometheus instrumentation for the sync server.

All collectors register against the default registerer via promauto and are
served by the /metrics endpoint. Counters are incremented from the room run
loops and the connection handlers; none of them sit on a hot lock.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sketchroom"

var (
	// ActiveRooms tracks the number of live room loops.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rooms",
		Help:      "Number of rooms currently running.",
	})

	// ActiveSessions tracks the number of connected WebSocket sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of active WebSocket sessions.",
	})

	// EventsTotal counts protocol events applied per message type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total number of protocol events applied, by message type.",
	}, []string{"type"})

	// OpsCommitted counts stroke operations appended to room logs.
	OpsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ops_committed_total",
		Help:      "Total number of stroke operations committed.",
	})

	// FramesDropped counts outbound frames dropped because a client's send
	// queue was full.
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_dropped_total",
		Help:      "Total number of outbound frames dropped on slow clients.",
	})
)
