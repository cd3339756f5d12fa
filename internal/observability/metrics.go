package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for checks and the HTTP API. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// ChecksTotal counts completed checks by verdict (acceptable, needs_revision).
	ChecksTotal *prometheus.CounterVec
	// EngineDuration observes per-engine run time in seconds.
	EngineDuration *prometheus.HistogramVec
	// AIProbability observes the AI probability of each check.
	AIProbability prometheus.Histogram
	// SimilarityScore observes the source similarity percentage of each check.
	SimilarityScore prometheus.Histogram
	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration observes API latency by route pattern.
	HTTPDuration *prometheus.HistogramVec
	// RateLimited counts requests rejected by the rate limiter.
	RateLimited prometheus.Counter
}

// NewMetrics registers all collectors on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of integrity checks by verdict",
		}, []string{"verdict"}),
		EngineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Duration of a single analysis engine run in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"engine"}),
		AIProbability: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_probability",
			Help:      "Distribution of AI probability across checks",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		SimilarityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_score",
			Help:      "Distribution of source similarity percentage across checks",
			Buckets:   []float64{5, 15, 30, 50, 75, 100},
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests by route and status",
		}, []string{"route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Total number of HTTP requests rejected by the rate limiter",
		}),
	}
}

func (m *Metrics) ObserveEngine(engine string, d time.Duration) {
	if m == nil {
		return
	}
	m.EngineDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (m *Metrics) RecordCheck(verdict string, aiProbability, similarityScore float64) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(verdict).Inc()
	m.AIProbability.Observe(aiProbability)
	m.SimilarityScore.Observe(similarityScore)
}

func (m *Metrics) RecordHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
