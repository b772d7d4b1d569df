package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the mesh loading core.
type Metrics struct {
	config MetricsConfig

	// Load metrics
	loadsStarted   prometheus.Counter
	loadsCompleted *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	fileBytes      prometheus.Histogram
	meshTriangles  prometheus.Histogram

	// Decode metrics
	decodeAttempts *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
	fallbacks      prometheus.Counter

	// Detection metrics
	formatsDetected *prometheus.CounterVec
	formatMismatches prometheus.Counter

	// Bridge metrics
	bridgeCalls       *prometheus.CounterVec
	bridgeDuration    *prometheus.HistogramVec
	watchdogExpiries  prometheus.Counter
	activeGenerations prometheus.Gauge

	// Error metrics
	errorsByCode *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Load metrics
		loadsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_started_total",
				Help:      "Total number of mesh loads started",
			},
		),
		loadsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_completed_total",
				Help:      "Total number of mesh loads completed",
			},
			[]string{"status", "format"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Duration of mesh loads in seconds",
				Buckets:   buckets,
			},
			[]string{"format"},
		),
		fileBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "file_size_bytes",
				Help:      "Size of loaded mesh files in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		meshTriangles: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mesh_triangles",
				Help:      "Triangle counts of loaded meshes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
		),

		// Decode metrics
		decodeAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_attempts_total",
				Help:      "Total number of decode attempts",
			},
			[]string{"mode", "status"},
		),
		decodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decode_duration_seconds",
				Help:      "Duration of decode attempts in seconds",
				Buckets:   buckets,
			},
			[]string{"mode"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_fallbacks_total",
				Help:      "Total number of fast-to-exact decode fallbacks",
			},
		),

		// Detection metrics
		formatsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "formats_detected_total",
				Help:      "Total number of format detections",
			},
			[]string{"format", "method"},
		),
		formatMismatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "format_mismatches_total",
				Help:      "Total number of files whose content disagreed with their name",
			},
		),

		// Bridge metrics
		bridgeCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bridge_calls_total",
				Help:      "Total number of foreign decoder calls",
			},
			[]string{"operation", "status"},
		),
		bridgeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bridge_call_duration_seconds",
				Help:      "Duration of foreign decoder calls in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		watchdogExpiries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bridge_watchdog_expiries_total",
				Help:      "Total number of foreign decodes that outlived the watchdog interval",
			},
		),
		activeGenerations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_buffer_generations",
				Help:      "Current number of live foreign buffer generations",
			},
		),

		// Error metrics
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of load errors by error code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.loadsStarted,
		m.loadsCompleted,
		m.loadDuration,
		m.fileBytes,
		m.meshTriangles,
		m.decodeAttempts,
		m.decodeDuration,
		m.fallbacks,
		m.formatsDetected,
		m.formatMismatches,
		m.bridgeCalls,
		m.bridgeDuration,
		m.watchdogExpiries,
		m.activeGenerations,
		m.errorsByCode,
	)

	return m, nil
}

// Load Metrics

// RecordLoadStarted increments the counter for started loads.
func (m *Metrics) RecordLoadStarted(sizeBytes int64) {
	if m.loadsStarted == nil {
		return
	}
	m.loadsStarted.Inc()
	m.fileBytes.Observe(float64(sizeBytes))
}

// RecordLoadCompleted records a completed load with its status and duration.
func (m *Metrics) RecordLoadCompleted(status, format string, duration time.Duration) {
	if m.loadsCompleted == nil {
		return
	}
	m.loadsCompleted.WithLabelValues(status, format).Inc()
	m.loadDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// ObserveTriangleCount records the triangle count of a loaded mesh.
func (m *Metrics) ObserveTriangleCount(triangles int) {
	if m.meshTriangles == nil {
		return
	}
	m.meshTriangles.Observe(float64(triangles))
}

// Decode Metrics

// RecordDecodeAttempt records one decode attempt with its mode and outcome.
func (m *Metrics) RecordDecodeAttempt(mode, status string, duration time.Duration) {
	if m.decodeAttempts == nil {
		return
	}
	m.decodeAttempts.WithLabelValues(mode, status).Inc()
	m.decodeDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordFallback records a fast-to-exact decode fallback.
func (m *Metrics) RecordFallback() {
	if m.fallbacks == nil {
		return
	}
	m.fallbacks.Inc()
}

// Detection Metrics

// RecordFormatDetected records a format detection with its method.
func (m *Metrics) RecordFormatDetected(format, method string) {
	if m.formatsDetected == nil {
		return
	}
	m.formatsDetected.WithLabelValues(format, method).Inc()
}

// RecordFormatMismatch records a content-versus-name disagreement.
func (m *Metrics) RecordFormatMismatch() {
	if m.formatMismatches == nil {
		return
	}
	m.formatMismatches.Inc()
}

// Bridge Metrics

// RecordBridgeCall records a foreign decoder call with its duration.
func (m *Metrics) RecordBridgeCall(operation, status string, duration time.Duration) {
	if m.bridgeCalls == nil {
		return
	}
	m.bridgeCalls.WithLabelValues(operation, status).Inc()
	m.bridgeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWatchdogExpiry records a foreign decode that outlived the
// watchdog interval.
func (m *Metrics) RecordWatchdogExpiry() {
	if m.watchdogExpiries == nil {
		return
	}
	m.watchdogExpiries.Inc()
}

// SetActiveGenerations sets the current number of live buffer generations.
func (m *Metrics) SetActiveGenerations(count float64) {
	if m.activeGenerations == nil {
		return
	}
	m.activeGenerations.Set(count)
}

// Error Metrics

// RecordError records a load error by its code.
func (m *Metrics) RecordError(code string) {
	if m.errorsByCode == nil {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
