package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lingoleap",
			Name:      "http_requests_total",
			Help:      "Requests served, by route pattern and status.",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lingoleap",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route pattern.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2.5, 9),
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lingoleap",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being handled.",
		},
	)

	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lingoleap",
			Name:      "llm_calls_total",
			Help:      "LLM provider calls by outcome.",
		},
		[]string{"provider", "status"},
	)

	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lingoleap",
			Name:      "llm_call_duration_seconds",
			Help:      "LLM provider latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	expAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lingoleap",
			Name:      "exp_awarded_total",
			Help:      "Experience points awarded.",
		},
		[]string{"source", "language"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lingoleap",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"action"},
	)
)

// MetricsMiddleware collects Prometheus metrics for every request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		// FullPath is the route pattern, so /api/admin/users/:id is one series.
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

// RecordLLMCall matches llm.Recorder.
func RecordLLMCall(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	llmCallsTotal.WithLabelValues(provider, status).Inc()
	llmCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordExpAwarded(source, language string, exp int) {
	if exp > 0 {
		expAwardedTotal.WithLabelValues(source, language).Add(float64(exp))
	}
}
