package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	documentsGenerated   *prometheus.CounterVec
	generationFailures   *prometheus.CounterVec
	numberRetries        *prometheus.CounterVec
	lifecycleTransitions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		documentsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_generated_total",
				Help: "Documents issued, by kind and scenario.",
			},
			[]string{"kind", "scenario"},
		),
		generationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_generation_failures_total",
				Help: "Failed generation attempts, by kind and error type.",
			},
			[]string{"kind", "error_type"},
		),
		numberRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_number_retries_total",
				Help: "Document number collisions that triggered a retry.",
			},
			[]string{"kind"},
		),
		lifecycleTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_lifecycle_transitions_total",
				Help: "Document status changes, by target status.",
			},
			[]string{"kind", "status"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.requestCount,
		m.requestDuration,
		m.documentsGenerated,
		m.generationFailures,
		m.numberRetries,
		m.lifecycleTransitions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// DocumentGenerated counts an issued document.
func (m *Metrics) DocumentGenerated(kind, scenario string) {
	if m == nil {
		return
	}
	m.documentsGenerated.WithLabelValues(kind, scenario).Inc()
}

// GenerationFailed counts a failed generation.
func (m *Metrics) GenerationFailed(kind, errorType string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(kind, errorType).Inc()
}

// NumberRetried counts a number collision retry.
func (m *Metrics) NumberRetried(kind string) {
	if m == nil {
		return
	}
	m.numberRetries.WithLabelValues(kind).Inc()
}

// Transitioned counts a lifecycle status change.
func (m *Metrics) Transitioned(kind, status string) {
	if m == nil {
		return
	}
	m.lifecycleTransitions.WithLabelValues(kind, status).Inc()
}

// Handler returns gin middleware recording request count and latency.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// Route pattern, e.g. /api/v1/receipts/:id
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.requestCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
