package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RentalTransitions counts rental state changes by action and outcome.
	RentalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusrent_rental_transitions_total",
		Help: "Total number of rental transition attempts by action and result",
	}, []string{"action", "result"})

	// NotificationsCreated counts notifications written by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusrent_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusrent_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DBTxLatency records the latency of write transactions by operation.
	DBTxLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusrent_db_tx_latency_seconds",
		Help:    "Database transaction latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// TrackTx returns a function that records transaction latency when called (e.g. defer).
func TrackTx(operation string) func() {
	start := time.Now()
	return func() {
		DBTxLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition increments the transition counter.
func RecordTransition(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RentalTransitions.WithLabelValues(action, result).Inc()
}
