package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	factorFallbacks  *prometheus.CounterVec
	cacheOps         *prometheus.CounterVec
	riskLevel        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_provider_requests_total",
				Help: "Upstream provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		factorFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_factor_fallbacks_total",
				Help: "Locally computed factor fallbacks by factor",
			},
			[]string{"factor"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_cache_ops_total",
				Help: "Result cache operations by tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		riskLevel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskpulse_risk_level",
				Help: "Last computed composite risk level per asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskpulse_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderRequest records one upstream call outcome ("ok" or "error").
func (r *Recorder) RecordProviderRequest(provider, outcome string) {
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
}

// RecordFactorFallback records a locally computed factor fallback.
func (r *Recorder) RecordFactorFallback(factor string) {
	r.factorFallbacks.WithLabelValues(factor).Inc()
}

// RecordCacheOp records a result-cache operation ("hit", "miss", "store").
func (r *Recorder) RecordCacheOp(tier, outcome string) {
	r.cacheOps.WithLabelValues(tier, outcome).Inc()
}

// RecordRiskLevel records the last composite risk level for an asset.
func (r *Recorder) RecordRiskLevel(asset string, level float64) {
	r.riskLevel.WithLabelValues(asset).Set(level)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
