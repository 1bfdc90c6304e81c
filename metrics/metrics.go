package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the auth chain and order pipeline
var (
	AuthDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_denied_total",
			Help: "Requests rejected before business logic, by reason",
		},
		[]string{"reason"}, // unauthenticated, forbidden, rate_limited
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Committed order transitions by target status",
		},
		[]string{"status"},
	)

	BroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "room_broadcasts_total",
			Help: "Total number of room broadcasts",
		},
	)

	BroadcastDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "room_broadcast_drops_total",
			Help: "Broadcast deliveries skipped due to full subscriber buffers",
		},
	)

	AuditDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit events dropped on buffer overflow",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		AuthDeniedTotal,
		OrderTransitionsTotal,
		BroadcastsTotal,
		BroadcastDropsTotal,
		AuditDropsTotal,
	)
}
