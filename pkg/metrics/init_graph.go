package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.NetworksTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bnmodel_networks_total",
			Help: "Number of live networks",
		},
	)

	r.NodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bnmodel_nodes_total",
			Help: "Number of live nodes across all networks",
		},
	)

	r.LinksTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bnmodel_links_total",
			Help: "Number of live links by kind",
		},
		[]string{"kind"},
	)

	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bnmodel_mutations_total",
			Help: "Graph mutations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	r.MutationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bnmodel_mutation_duration_seconds",
			Help:    "Graph mutation duration in seconds, including engine calls",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	r.LinkRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bnmodel_link_rejections_total",
			Help: "Rejected link requests by reason",
		},
		[]string{"reason"},
	)

	r.RollbacksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bnmodel_rollbacks_total",
			Help: "Mutations undone after a failure part way through",
		},
		[]string{"operation"},
	)

	r.TableResetsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bnmodel_table_resets_total",
			Help: "Node tables replaced by a default after a parent change",
		},
	)

	r.AdvisoryRepairs = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bnmodel_advisory_repairs_total",
			Help: "Tokens replaced while loading functions in advisory mode",
		},
	)
}
