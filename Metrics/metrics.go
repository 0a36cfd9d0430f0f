package Metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the order fulfillment pipeline
var (
	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_orders_created_total",
			Help: "Total number of orders successfully inserted",
		},
	)

	OrdersDedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_orders_deduped_total",
			Help: "Total number of order submissions answered from an existing request token",
		},
	)

	OrdersOutboxedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_orders_outboxed_total",
			Help: "Total number of orders diverted to the local outbox after a persistence failure",
		},
	)

	OutboxReplayedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_outbox_replayed_total",
			Help: "Total number of outbox entries successfully replayed into the database",
		},
	)

	ProofsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_payment_proofs_submitted_total",
			Help: "Total number of payment proofs accepted for verification",
		},
	)

	ProofsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fueldoor_payment_proofs_rejected_total",
			Help: "Total number of payment proofs failing validation",
		},
	)

	PaymentDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fueldoor_payment_decisions_total",
			Help: "Total number of operator payment decisions",
		},
		[]string{"decision"},
	)

	OrderCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fueldoor_order_create_duration_seconds",
			Help:    "Duration of order creation including persistence",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all pipeline metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		OrdersCreatedTotal,
		OrdersDedupedTotal,
		OrdersOutboxedTotal,
		OutboxReplayedTotal,
		ProofsSubmittedTotal,
		ProofsRejectedTotal,
		PaymentDecisionsTotal,
		OrderCreateDuration,
	)
}
