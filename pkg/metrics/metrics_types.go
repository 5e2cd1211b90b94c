package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of the modeling layer
type Registry struct {
	// Graph Metrics
	NetworksTotal       prometheus.Gauge
	NodesTotal          prometheus.Gauge
	LinksTotal          *prometheus.GaugeVec
	MutationsTotal      *prometheus.CounterVec
	MutationDuration    *prometheus.HistogramVec
	LinkRejectionsTotal *prometheus.CounterVec
	RollbacksTotal      *prometheus.CounterVec
	TableResetsTotal    prometheus.Counter
	AdvisoryRepairs     prometheus.Counter

	// Engine Metrics
	EngineCallsTotal   *prometheus.CounterVec
	EngineCallDuration *prometheus.HistogramVec
	SlowEngineCalls    *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initEngineMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
