package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// HTTPServerMetrics holds the API-side registry: HTTP server metrics plus
// the intake counters recorded from the use case.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal        *prometheus.CounterVec
	docsVerifiedTotal *prometheus.CounterVec
	appraisalsTotal   prometheus.Counter
	approvedAmountTHB prometheus.Histogram
	capFailuresTotal  *prometheus.CounterVec
	feedbackTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mli",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mli",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Total processed session turns by terminal node.",
		},
		[]string{"service", "terminal"},
	)
	docsVerifiedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "documents_verified_total",
			Help:      "Total document verification outcomes by kind.",
		},
		[]string{"service", "kind", "result"},
	)
	appraisalsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "appraisals_total",
			Help:      "Total completed appraisals with an approved amount.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	approvedAmountTHB := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "approved_amount_thb",
			Help:      "Distribution of approved loan amounts in THB.",
			Buckets:   []float64{5000, 10000, 20000, 40000, 80000, 150000, 300000, 600000},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	capFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "capability_failures_total",
			Help:      "Total degraded turns by failing capability operation.",
		},
		[]string{"service", "operation"},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mli",
			Subsystem: "intake",
			Name:      "feedback_total",
			Help:      "Total satisfaction responses by kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		turnsTotal,
		docsVerifiedTotal,
		appraisalsTotal,
		approvedAmountTHB,
		capFailuresTotal,
		feedbackTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		turnsTotal:        turnsTotal,
		docsVerifiedTotal: docsVerifiedTotal,
		appraisalsTotal:   appraisalsTotal,
		approvedAmountTHB: approvedAmountTHB,
		capFailuresTotal:  capFailuresTotal,
		feedbackTotal:     feedbackTotal,
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

var sessionPathRE = regexp.MustCompile(`^/v1/sessions/[^/]+`)

func normalizePath(path string) string {
	return sessionPathRE.ReplaceAllString(path, "/v1/sessions/{session_id}")
}

// IntakeRecorder binds the shared registry to the use case Recorder
// interface with a fixed service label.
type IntakeRecorder struct {
	metrics *HTTPServerMetrics
	service string
}

func NewIntakeRecorder(metrics *HTTPServerMetrics, service string) *IntakeRecorder {
	return &IntakeRecorder{metrics: metrics, service: service}
}

func (r *IntakeRecorder) TurnProcessed(terminal string) {
	if terminal == "" {
		terminal = "unknown"
	}
	r.metrics.turnsTotal.WithLabelValues(r.service, terminal).Inc()
}

func (r *IntakeRecorder) DocumentVerified(kind domain.DocumentKind, ok bool) {
	result := "rejected"
	if ok {
		result = "accepted"
	}
	r.metrics.docsVerifiedTotal.WithLabelValues(r.service, string(kind), result).Inc()
}

func (r *IntakeRecorder) AppraisalCompleted(approvedTHB int) {
	r.metrics.appraisalsTotal.Inc()
	r.metrics.approvedAmountTHB.Observe(float64(approvedTHB))
}

func (r *IntakeRecorder) CapabilityFailure(operation string) {
	if operation == "" {
		operation = "unknown"
	}
	r.metrics.capFailuresTotal.WithLabelValues(r.service, operation).Inc()
}

func (r *IntakeRecorder) FeedbackReceived(kind domain.FeedbackKind) {
	r.metrics.feedbackTotal.WithLabelValues(r.service, string(kind)).Inc()
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
