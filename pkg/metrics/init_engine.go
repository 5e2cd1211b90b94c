package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.EngineCallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bnmodel_engine_calls_total",
			Help: "Inference engine boundary calls by call and outcome",
		},
		[]string{"call", "status"},
	)

	r.EngineCallDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bnmodel_engine_call_duration_seconds",
			Help:    "Inference engine boundary call duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"call"},
	)

	r.SlowEngineCalls = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bnmodel_engine_slow_calls_total",
			Help: "Engine calls slower than the configured threshold, made while holding the graph lock",
		},
		[]string{"call"},
	)
}
