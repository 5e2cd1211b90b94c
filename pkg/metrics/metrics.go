package metrics

import (
	"runtime"
	"time"
)

// Outcome labels
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Link kind labels
const (
	LinkSimple = "simple"
	LinkCross  = "cross_network"
)

// RecordMutation records a graph mutation with its duration
func (r *Registry) RecordMutation(operation, status string, duration time.Duration) {
	r.MutationsTotal.WithLabelValues(operation, status).Inc()
	r.MutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLinkRejection counts a link request refused for reason
func (r *Registry) RecordLinkRejection(reason string) {
	r.LinkRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordRollback counts a mutation that had to be undone
func (r *Registry) RecordRollback(operation string) {
	r.RollbacksTotal.WithLabelValues(operation).Inc()
}

// RecordEngineCall records a boundary call. Calls slower than slow are also
// counted separately; a zero threshold disables that.
func (r *Registry) RecordEngineCall(call string, err error, duration, slow time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.EngineCallsTotal.WithLabelValues(call, status).Inc()
	r.EngineCallDuration.WithLabelValues(call).Observe(duration.Seconds())

	if slow > 0 && duration > slow {
		r.SlowEngineCalls.WithLabelValues(call).Inc()
	}
}

// AdjustGraphSize moves the network and node gauges by the given deltas
func (r *Registry) AdjustGraphSize(networks, nodes int) {
	r.NetworksTotal.Add(float64(networks))
	r.NodesTotal.Add(float64(nodes))
}

// AdjustLinks moves the link gauge of one kind
func (r *Registry) AdjustLinks(kind string, delta int) {
	r.LinksTotal.WithLabelValues(kind).Add(float64(delta))
}

// RecordTableReset counts a table replaced by its default
func (r *Registry) RecordTableReset() {
	r.TableResetsTotal.Inc()
}

// RecordAdvisoryRepairs counts tokens replaced in advisory mode
func (r *Registry) RecordAdvisoryRepairs(n int) {
	r.AdvisoryRepairs.Add(float64(n))
}

// UpdateSystemMetrics refreshes the process gauges
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
