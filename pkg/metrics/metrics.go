// Package metrics provides the Prometheus registry and HTTP handler for artsel.
// All metrics are defined in their respective packages (client, ratelimit,
// selection, pagination) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by artsel.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the metrics of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - artsel_rate_limit_remaining (Gauge): Requests remaining in the API rate limit window
//   - artsel_rate_limit_blocks_total (Counter): Requests blocked until the window reset
//   - artsel_rate_limit_throttles_total (Counter): Requests delayed because the budget is low
//
// Fetch Metrics (pkg/client):
//   - artsel_fetch_requests_total{status} (Counter): Page fetches by HTTP status
//   - artsel_fetch_duration_seconds (Histogram): Page fetch duration
//   - artsel_fetch_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Selection Metrics (pkg/selection):
//   - artsel_selection_mutations_total{backend, op} (Counter): Ids whose membership actually changed, per backend
//
// Bulk Selection Metrics (pkg/pagination):
//   - artsel_bulk_select_total{status} (Counter): Runs by status (noop, completed, cancelled, failed)
//   - artsel_bulk_selected_records_total (Counter): Ids committed by bulk selection
//   - artsel_bulk_pages_fetched_total (Counter): Pages fetched by bulk selection
//
// Example Prometheus Queries:
//
//   # Bulk selection failure rate
//   sum(rate(artsel_bulk_select_total{status="failed"}[5m])) /
//   sum(rate(artsel_bulk_select_total[5m]))
//
//   # Rate limit status
//   artsel_rate_limit_remaining < 5
//
//   # Fetch error rate
//   rate(artsel_fetch_errors_total[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(artsel_fetch_duration_seconds_bucket[5m]))
