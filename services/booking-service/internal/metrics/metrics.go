package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinicslots"

var (
	once sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Lifecycle operations by name and outcome kind.",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_operation_duration_seconds",
			Help:      "Latency of lifecycle operations including retries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	slotsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slots_resolved",
			Help:      "Number of tiles returned per slot resolution.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	storageRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Retries of retriable storage failures by operation.",
		},
		[]string{"operation"},
	)
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(operations, operationDuration, slotsReturned, storageRetries)
	})
}

func ObserveOperation(op, outcome string, elapsed time.Duration) {
	operations.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func ObserveSlots(n int) {
	slotsReturned.Observe(float64(n))
}

func IncStorageRetry(op string) {
	storageRetries.WithLabelValues(op).Inc()
}
