package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	generationTotal     *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	retrievalHitTotal   *prometheus.CounterVec
	noContextTotal      *prometheus.CounterVec
	retrievedPassages   *prometheus.HistogramVec
	parseFailuresTotal  *prometheus.CounterVec
	attemptsSavedTotal  *prometheus.CounterVec
	assessmentsRunTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "satprep",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "satprep",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	generationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Total question generation requests by outcome.",
		},
		[]string{"service", "endpoint", "status"},
	)
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "satprep",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "End-to-end question generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total grounded generations with at least one retrieved passage.",
		},
		[]string{"service", "endpoint"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total grounded generations rejected for lack of corpus context.",
		},
		[]string{"service", "endpoint"},
	)
	retrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "satprep",
			Subsystem: "retrieval",
			Name:      "passages",
			Help:      "Distribution of retrieved passages per grounded generation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	parseFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "generation",
			Name:      "parse_failures_total",
			Help:      "Total model responses rejected by the structured parser.",
		},
		[]string{"service", "endpoint", "kind"},
	)
	attemptsSavedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "progress",
			Name:      "attempts_saved_total",
			Help:      "Total recorded question attempts.",
		},
		[]string{"service", "correct"},
	)
	assessmentsRunTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "satprep",
			Subsystem: "progress",
			Name:      "assessments_total",
			Help:      "Total completed knowledge assessments.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		generationTotal,
		generationDuration,
		retrievalHitTotal,
		noContextTotal,
		retrievedPassages,
		parseFailuresTotal,
		attemptsSavedTotal,
		assessmentsRunTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		generationTotal:     generationTotal,
		generationDuration:  generationDuration,
		retrievalHitTotal:   retrievalHitTotal,
		noContextTotal:      noContextTotal,
		retrievedPassages:   retrievedPassages,
		parseFailuresTotal:  parseFailuresTotal,
		attemptsSavedTotal:  attemptsSavedTotal,
		assessmentsRunTotal: assessmentsRunTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordGeneration(service, endpoint, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.generationTotal.WithLabelValues(service, endpoint, status).Inc()
	m.generationDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint string, passageCount int) {
	m.retrievedPassages.WithLabelValues(service, endpoint).Observe(float64(passageCount))
	if passageCount > 0 {
		m.retrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.noContextTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordParseFailure(service, endpoint, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.parseFailuresTotal.WithLabelValues(service, endpoint, kind).Inc()
}

func (m *HTTPServerMetrics) RecordAttemptSaved(service string, correct bool) {
	m.attemptsSavedTotal.WithLabelValues(service, strconv.FormatBool(correct)).Inc()
}

func (m *HTTPServerMetrics) RecordAssessment(service string) {
	m.assessmentsRunTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
