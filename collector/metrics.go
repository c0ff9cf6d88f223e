package collector

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_requests",
		Help: "The total number of received HTTP requests",
	})
	readErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_read_errors",
		Help: "The number of report batches dropped due to body read errors",
	})
	truncatedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_truncated_errors",
		Help: "The number of report batches dropped for being too large",
	})
	parseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_parse_errors",
		Help: "The number of report batches dropped due to JSON parsing errors",
	})
	resolveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_resolve_errors",
		Help: "The number of report batches dropped because client context resolution failed",
	})
	sinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_sink_errors",
		Help: "The number of log sink write failures",
	})
	droppedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_dropped_records",
		Help: "The number of individual records dropped during serialization",
	})
	emittedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nel_ingest_emitted_records",
		Help: "The total number of records written to the log sink",
	})
	requestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "nel_ingest_request_latency_seconds",
		Help: "A histogram of request latency",
		// Create buckets from 1ms to 10 seconds, with 10 steps per order of magnitude,
		// or roughly a 25% jump between buckets.
		Buckets: prometheus.ExponentialBucketsRange(0.001, 10.000, 41),
	})
	responseCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nel_ingest_status_codes",
		Help: "The number of each HTTP status code",
	}, []string{"status_code"})
	requestBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "nel_ingest_request_size_bytes",
		Help: "A histogram of request size",
		// Create buckets from 1 byte to 2 MB with 5 steps per order of magnitude,
		// or roughly a 60% jump between buckets.
		Buckets: prometheus.ExponentialBucketsRange(1, 10000000, 7*5+1),
	})
	requestReports = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "nel_ingest_request_size_reports",
		Help: "A histogram of the number of reports per request",
		// Create buckets from 1 to 1000 5 steps per order of magnitude,
		// or roughly a 60% jump between buckets.
		Buckets: prometheus.ExponentialBucketsRange(1, 1000, 3*5+1),
	})
)

// RunMetricsServer creates an HTTP server that listens on the supplied
// `addr` and serves Prometheus metrics on `/metrics`.  Under normal
// circumstances, this will not return until server shutdown.
func RunMetricsServer(addr string) error {
	metricMux := http.NewServeMux()
	metricMux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, metricMux)
}
