// Package telemetry provides application-level observability for the event registry.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<EVR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped by a Prometheus server every 15–60 seconds.
// It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Registration, point adjustment, and export counters
//   - Screenshot upload size histogram
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/admin/registrations/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as registration IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template, NOT the raw URL.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Domain metrics, recorded by the registration, leaderboard, and export handlers.
//
// RegistrationsCreatedTotal counts successful registrations only; rejected
// submissions (validation or duplicate failures) appear under
// RegistrationsRejectedTotal with a reason label instead.
//
// Example PromQL queries:
//   - Registrations per hour:   increase(registrations_created_total[1h])
//   - Rejection reasons:        sum by (reason) (rate(registrations_rejected_total[1h]))
var (
	RegistrationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Total number of successfully created registrations.",
		},
	)

	RegistrationsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_rejected_total",
			Help: "Total number of rejected registration attempts, by reason.",
		},
		[]string{"reason"},
	)

	LeaderboardAdjustmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leaderboard_adjustments_total",
			Help: "Total number of admin point adjustments applied to the leaderboard.",
		},
	)

	ExportDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_downloads_total",
			Help: "Total number of spreadsheet exports downloaded, by report name.",
		},
		[]string{"report"},
	)

	// ScreenshotUploadBytes observes the size of each accepted payment
	// screenshot.  Buckets run from 10 KiB to 10 MiB.
	ScreenshotUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screenshot_upload_bytes",
			Help:    "Size distribution of accepted payment screenshot uploads.",
			Buckets: prometheus.ExponentialBuckets(10*1024, 4, 6),
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
