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

type IntakeMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	submissionsTotal      *prometheus.CounterVec
	rejectionsTotal       *prometheus.CounterVec
	structuringDuration   *prometheus.HistogramVec
	transcriptionDuration *prometheus.HistogramVec
	backupFailuresTotal   prometheus.Counter
	publishFailuresTotal  prometheus.Counter
}

func NewIntakeMetrics(service string) *IntakeMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaint",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complaint",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "complaint",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	submissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Total submissions by input type and outcome.",
		},
		[]string{"service", "input_type", "outcome"},
	)
	rejectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "rejections_total",
			Help:      "Total rejected submissions by reason.",
		},
		[]string{"service", "reason"},
	)
	structuringDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "structuring_duration_seconds",
			Help:      "Structuring call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		},
		[]string{"service"},
	)
	transcriptionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "transcription_duration_seconds",
			Help:      "Transcription duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)
	backupFailuresTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "backup_failures_total",
			Help:      "Total backup snapshot failures (never surfaced to clients).",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	publishFailuresTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complaint",
			Subsystem: "intake",
			Name:      "publish_failures_total",
			Help:      "Total committed-complaint event publish failures.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		submissionsTotal,
		rejectionsTotal,
		structuringDuration,
		transcriptionDuration,
		backupFailuresTotal,
		publishFailuresTotal,
	)

	return &IntakeMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		submissionsTotal:      submissionsTotal,
		rejectionsTotal:       rejectionsTotal,
		structuringDuration:   structuringDuration,
		transcriptionDuration: transcriptionDuration,
		backupFailuresTotal:   backupFailuresTotal,
		publishFailuresTotal:  publishFailuresTotal,
	}
}

func (m *IntakeMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IntakeMetrics) Middleware(service string, next http.Handler) http.Handler {
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
	case strings.HasPrefix(path, "/complaints/") && strings.HasSuffix(path, "/status"):
		return "/complaints/{id}/status"
	case strings.HasPrefix(path, "/complaints/") && strings.HasSuffix(path, "/priority"):
		return "/complaints/{id}/priority"
	case path == "/submit-text", path == "/submit-voice", path == "/complaints",
		path == "/complaints/export", path == "/healthz", path == "/metrics":
		return path
	default:
		// Everything else is SPA static serving; collapse to one series.
		return "/static"
	}
}

func (m *IntakeMetrics) RecordSubmission(service, inputType, outcome string) {
	m.submissionsTotal.WithLabelValues(service, inputType, outcome).Inc()
}

func (m *IntakeMetrics) RecordRejection(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.rejectionsTotal.WithLabelValues(service, reason).Inc()
}

func (m *IntakeMetrics) RecordStructuringDuration(service string, d time.Duration) {
	m.structuringDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (m *IntakeMetrics) RecordTranscriptionDuration(service string, d time.Duration) {
	m.transcriptionDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (m *IntakeMetrics) RecordBackupFailure() {
	m.backupFailuresTotal.Inc()
}

func (m *IntakeMetrics) RecordPublishFailure() {
	m.publishFailuresTotal.Inc()
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
