/*
Package metrics provides Prometheus metrics collection and exposition
for doculexd.

Metrics are registered at package init and exposed via HTTP for
scraping by a Prometheus server.

# Metrics Catalog

doculex_requests_total{verb, status}:
  - Type: Counter
  - Description: Total requests handled, by verb and outcome status
  - Example: doculex_requests_total{verb="GET",status="ok"} 1024

doculex_request_duration_seconds{verb}:
  - Type: Histogram
  - Description: Request handling duration, by verb
  - Buckets: Default Prometheus buckets

doculex_documents_total:
  - Type: Gauge
  - Description: Total documents held across all buckets and collections
  - Refreshed by Collector every 15s

doculex_index_tokens_total:
  - Type: Gauge
  - Description: Total distinct (bucket, collection, token) entries in the index
  - Refreshed by Collector every 15s

doculex_connections_active:
  - Type: Gauge
  - Description: TCP connections currently open

doculex_snapshot_duration_seconds{op}:
  - Type: Histogram
  - Description: Time to persist or load a snapshot, by operation ("persist"/"load")

# Usage

	import "github.com/corvid-labs/doculex/pkg/metrics"

	metrics.RequestsTotal.WithLabelValues("SET", "ok").Inc()
	metrics.ConnectionsActive.Inc()

	timer := metrics.NewTimer()
	// ... handle request ...
	timer.ObserveDurationVec(metrics.RequestDuration, "SET")

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init(); MustRegister panics on duplicate
    registration, so a collision is caught at process start, not later.

Timer Pattern:
  - Create a Timer at the start of an operation, observe its duration
    into a histogram (optionally with labels) when the operation ends.

Collector:
  - A background ticker that periodically recomputes the store/index
    size gauges, since those require a full walk and are too expensive
    to keep current on every request.

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
