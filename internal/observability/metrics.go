package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationLatency records document store latency by backend, collection and operation.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bigvyapaar_docstore_operation_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "collection", "operation"})

	// StoreErrors counts failed document store operations.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigvyapaar_docstore_errors_total",
		Help: "Total number of failed document store operations",
	}, []string{"backend", "collection", "operation"})

	// StoreConflicts counts optimistic concurrency conflicts, including retried ones.
	StoreConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigvyapaar_docstore_conflicts_total",
		Help: "Total number of version conflicts seen by conditional writes",
	}, []string{"backend", "collection"})

	// RedisErrors counts Redis command errors other than redis.Nil.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigvyapaar_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SagaPartialFailures counts multi-document workflows that stopped half way.
	SagaPartialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigvyapaar_saga_partial_failures_total",
		Help: "Multi-document workflows that committed some but not all writes",
	}, []string{"workflow"})

	// NotificationsSent counts notification dispatch attempts by outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigvyapaar_notifications_total",
		Help: "Notification dispatch attempts by outcome",
	}, []string{"outcome"})

	// ActiveWebSockets is the number of open notification sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bigvyapaar_websocket_connections",
		Help: "Number of open notification WebSocket connections",
	})
)

// TrackStoreOperation returns a func that records latency and, when err is
// non-nil, an error for the operation. Use with defer.
func TrackStoreOperation(backend, collection, operation string) func(err error) {
	start := time.Now()
	return func(err error) {
		StoreOperationLatency.WithLabelValues(backend, collection, operation).Observe(time.Since(start).Seconds())
		if err != nil {
			StoreErrors.WithLabelValues(backend, collection, operation).Inc()
		}
	}
}
