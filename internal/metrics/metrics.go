package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pron_engine"

// HTTP metrics (counter/histogram — incremented by middleware).
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "path_pattern", "status_code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path_pattern"})
)

// Domain counters (incremented directly by the sample and ingest packages).
var (
	SamplesServedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_served_total",
		Help:      "Practice sentences served per language.",
	}, []string{"language"})

	SelectorDrawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selector_draws_total",
		Help:      "Random draws made by the sentence selector.",
	}, []string{"language"})

	SelectorRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selector_rejections_total",
		Help:      "Draws rejected for not matching the requested category.",
	}, []string{"language"})

	SelectorExhaustionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selector_exhaustions_total",
		Help:      "Selections that exhausted the rejection-sampling budget.",
	}, []string{"language"})

	DatasetReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_reloads_total",
		Help:      "Successful dataset loads per language.",
	}, []string{"language"})

	IngestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingests_total",
		Help:      "Video ingestions by outcome.",
	}, []string{"outcome"})

	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "End-to-end video ingestion duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SamplesServedTotal,
		SelectorDrawsTotal,
		SelectorRejectionsTotal,
		SelectorExhaustionsTotal,
		DatasetReloadsTotal,
		IngestsTotal,
		IngestDuration,
	)
}

// InstrumentHandler returns middleware that records HTTP request metrics.
// It uses chi's route pattern as the path label to avoid cardinality explosion.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unknown"
		}
		status := strconv.Itoa(sw.status)

		HTTPRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap supports http.ResponseController and middleware that check for
// wrapped writers.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
