// Package metrics holds the chat domain Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_appended_total",
			Help: "Total number of messages stored, by message type",
		},
		[]string{"type"},
	)

	PushEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_total",
			Help: "Total number of realtime events fanned out, by event",
		},
		[]string{"event"},
	)

	BrokerDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_broker_dropped_total",
			Help: "Total number of events not published to the broker because its queue was full",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of currently open websocket connections",
		},
	)
)
