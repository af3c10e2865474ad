package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagepatch"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Suggestion metrics
	SuggestionsTotal *prometheus.CounterVec
	NodesTouched     *prometheus.CounterVec

	// Suggestion service metrics
	FetchTotal    *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// Patch metrics
	PatchDuration *prometheus.HistogramVec
	PatchesActive prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	Patches       int64   `json:"patches"`
	Applied       int64   `json:"applied"`
	Failed        int64   `json:"failed"`
	AvgPatchMs    float64 `json:"avg_patch_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	patchSeconds float64
}

// NewMetrics creates a metrics collector on its own registry, with the Go
// runtime and process collectors attached.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg)
}

// NewMetricsWith registers the metrics on reg.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		SuggestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestions_processed_total",
				Help:      "Suggestions processed by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		NodesTouched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_touched_total",
				Help:      "Document nodes modified by kind",
			},
			[]string{"kind"},
		),

		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestion_fetches_total",
				Help:      "Requests to the suggestion service by status",
			},
			[]string{"status"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "suggestion_fetch_duration_seconds",
				Help:      "Suggestion service request duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		PatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "patch_duration_seconds",
				Help:      "Time to apply one suggestion batch to one document",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"source"},
		),
		PatchesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "patches_active",
				Help:      "Documents currently being patched",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSuggestion records one suggestion outcome and the nodes it touched.
func (m *Metrics) RecordSuggestion(kind, outcome string, touched int) {
	m.SuggestionsTotal.WithLabelValues(kind, outcome).Inc()
	if touched > 0 {
		m.NodesTouched.WithLabelValues(kind).Add(float64(touched))
	}

	m.mu.Lock()
	switch outcome {
	case "applied":
		m.snapshot.Applied++
	case "failed", "rejected":
		m.snapshot.Failed++
	}
	m.mu.Unlock()
}

// ObserveFetch records one request to the suggestion service.
func (m *Metrics) ObserveFetch(status string, elapsed time.Duration) {
	m.FetchTotal.WithLabelValues(status).Inc()
	m.FetchDuration.Observe(elapsed.Seconds())
}

// ObservePatch records the time one batch took to apply.
func (m *Metrics) ObservePatch(source string, elapsed time.Duration) {
	m.PatchDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	m.mu.Lock()
	m.snapshot.Patches++
	m.snapshot.patchSeconds += elapsed.Seconds()
	m.mu.Unlock()
}

// Snapshot returns the current running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.Patches > 0 {
		s.AvgPatchMs = s.patchSeconds / float64(s.Patches) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
