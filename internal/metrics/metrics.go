// Package metrics exposes Prometheus instrumentation for spreadsheet imports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Batch results recorded by ObserveBatch.
const (
	ResultCompleted = "completed"
	ResultRejected  = "rejected"
)

var (
	batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postimport",
		Name:      "batches_total",
		Help:      "Import batches by result and error code.",
	}, []string{"result", "code"})

	rows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postimport",
		Name:      "rows_total",
		Help:      "Processed spreadsheet rows by outcome.",
	}, []string{"outcome"})

	warnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "postimport",
		Name:      "row_warnings_total",
		Help:      "Warnings raised on rows that were still imported.",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postimport",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of completed import batches.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

// ObserveBatch records a completed batch and its row counts.
func ObserveBatch(success, failed, warned int, d time.Duration) {
	batches.WithLabelValues(ResultCompleted, "").Inc()
	rows.WithLabelValues("success").Add(float64(success))
	rows.WithLabelValues("failed").Add(float64(failed))
	warnings.Add(float64(warned))
	batchDuration.Observe(d.Seconds())
}

// ObserveRejected records a batch rejected as a whole, labelled by error code.
func ObserveRejected(code string) {
	batches.WithLabelValues(ResultRejected, code).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
