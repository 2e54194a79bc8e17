// Package observability exposes the Prometheus collectors for the analysis
// pipeline. Collectors are package-level so any layer can increment them;
// Register is called once in main.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheHitsTotal counts lookups served from a cache tier.
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topikai_cache_hits_total",
			Help: "Total cache hits by tier and namespace.",
		},
		[]string{"tier", "namespace"},
	)

	// CacheMissesTotal counts lookups that fell through a cache tier.
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topikai_cache_misses_total",
			Help: "Total cache misses by tier and namespace.",
		},
		[]string{"tier", "namespace"},
	)

	// ModelCallsTotal counts outbound model invocations.
	ModelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topikai_model_calls_total",
			Help: "Total model invocations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// ModelCallSeconds tracks model invocation latency. Audio transcription
	// routinely takes tens of seconds, hence the wide buckets.
	ModelCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topikai_model_call_seconds",
			Help:    "Model invocation latency in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	// MediaDownloadBytes sums downloaded media payload sizes.
	MediaDownloadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topikai_media_download_bytes_total",
			Help: "Total bytes of media downloaded, by kind.",
		},
		[]string{"kind"},
	)

	// TranscodesTotal counts audio files that were shrunk before submission.
	TranscodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "topikai_transcodes_total",
			Help: "Total audio transcode runs.",
		},
	)

	// PipelineErrorsTotal counts failed pipeline operations by error type.
	PipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topikai_pipeline_errors_total",
			Help: "Total pipeline errors by type.",
		},
		[]string{"type"},
	)

	// HTTPRequestSeconds tracks API latency.
	HTTPRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topikai_http_request_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		ModelCallsTotal,
		ModelCallSeconds,
		MediaDownloadBytes,
		TranscodesTotal,
		PipelineErrorsTotal,
		HTTPRequestSeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}
