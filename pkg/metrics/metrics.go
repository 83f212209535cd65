package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doculex_requests_total",
			Help: "Total number of requests handled, by verb and outcome status",
		},
		[]string{"verb", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "doculex_request_duration_seconds",
			Help:    "Time taken to handle a request, by verb",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// Store/index gauges, refreshed periodically by Collector
	DocumentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "doculex_documents_total",
			Help: "Total number of documents currently held across all buckets and collections",
		},
	)

	IndexTokensTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "doculex_index_tokens_total",
			Help: "Total number of distinct (bucket, collection, token) entries currently in the inverted index",
		},
	)

	// Connection metrics
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "doculex_connections_active",
			Help: "Number of TCP connections currently open",
		},
	)

	// Snapshot metrics
	SnapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "doculex_snapshot_duration_seconds",
			Help:    "Time taken to persist or load a snapshot, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(IndexTokensTotal)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(SnapshotDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
