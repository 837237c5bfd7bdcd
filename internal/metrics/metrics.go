// Package metrics exposes Prometheus collectors for ephemeris fetches and
// the HTTP API.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeStale    = "stale"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orrery_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	ephemFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orrery_ephem_fetches_total",
			Help: "Ephemeris fetches by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	ephemFetchSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orrery_ephem_fetch_duration_seconds",
			Help:    "Ephemeris fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ephemRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orrery_ephem_rows",
			Help: "Number of rows in the latest orbital table.",
		},
	)

	sourceStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orrery_source_status",
			Help: "Current ephemeris source status (1 for the active status).",
		},
		[]string{"status"},
	)

	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orrery_stream_clients",
			Help: "Connected websocket stream clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orrery_stream_messages_total",
			Help: "Frames sent to websocket stream clients.",
		},
	)

	selfCheckFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orrery_selfcheck_failures",
			Help: "Failed assertions in the most recent self-check run.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(ephemFetchesTotal)
	prometheus.MustRegister(ephemFetchSeconds)
	prometheus.MustRegister(ephemRows)
	prometheus.MustRegister(sourceStatus)
	prometheus.MustRegister(streamClients)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(selfCheckFailures)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one provider fetch.
func ObserveFetch(provider, outcome string, d time.Duration) {
	ephemFetchesTotal.WithLabelValues(provider, outcome).Inc()
	ephemFetchSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// CountStale records a response discarded because a newer request superseded it.
func CountStale(provider string) {
	ephemFetchesTotal.WithLabelValues(provider, OutcomeStale).Inc()
}

// SetRows records the size of the latest orbital table.
func SetRows(n int) {
	ephemRows.Set(float64(n))
}

// SetSourceStatus marks status as the active one among all known statuses.
func SetSourceStatus(status string, known []string) {
	for _, s := range known {
		v := 0.0
		if s == status {
			v = 1
		}
		sourceStatus.WithLabelValues(s).Set(v)
	}
}

// StreamOpened records a new stream client.
func StreamOpened() {
	streamClients.Inc()
}

// StreamClosed records a disconnected stream client.
func StreamClosed() {
	streamClients.Dec()
}

// IncStreamMessages counts one frame sent to a stream client.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// SetSelfCheckFailures records the failure count of a self-check run.
func SetSelfCheckFailures(n int) {
	selfCheckFailures.Set(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack forwards to the wrapped writer when it supports hijacking.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
