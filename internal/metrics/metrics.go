// Package metrics exposes Prometheus instrumentation for store operations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal      *prometheus.CounterVec
	decryptFailuresTotal *prometheus.CounterVec
	operationDuration    *prometheus.HistogramVec

	metricsOnce sync.Once
)

// Init registers all Prometheus metrics. Call once at startup when metrics
// are enabled; recording is a no-op until then.
func Init() {
	metricsOnce.Do(func() {
		operationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_operations_total",
				Help: "Total number of credential store operations",
			},
			[]string{"operation", "status"},
		)

		decryptFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credstore_decrypt_failures_total",
				Help: "Total number of failed credential decryptions",
			},
			[]string{"reason"},
		)

		operationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credstore_operation_duration_seconds",
				Help:    "Duration of credential store operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"operation"},
		)
	})
}

// RecordOperation counts one completed operation with its outcome.
func RecordOperation(operation string, err error) {
	if operationsTotal == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDecryptFailure counts one failed decryption by reason
// ("integrity", "context", "key_service").
func RecordDecryptFailure(reason string) {
	if decryptFailuresTotal == nil {
		return
	}
	decryptFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveOperation records the duration of one operation.
func ObserveOperation(operation string, start time.Time) {
	if operationDuration == nil {
		return
	}
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
