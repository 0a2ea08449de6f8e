package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuditMetrics tracks the best-effort audit pipeline. Dropped and failed
// events are invisible to callers, so the counters are the only way to see
// them besides the local logs.
type AuditMetrics struct {
	enqueued *prometheus.CounterVec
	dropped  prometheus.Counter
	failures prometheus.Counter
	depth    prometheus.Gauge
}

// NewAuditMetrics registers the audit metrics on the provided registerer.
func NewAuditMetrics(reg prometheus.Registerer) *AuditMetrics {
	if reg == nil {
		return &AuditMetrics{}
	}
	enqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_enqueued_total",
		Help: "Audit events accepted onto the recorder queue.",
	}, []string{"outcome"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_events_dropped_total",
		Help: "Audit events dropped because the recorder queue was full.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Audit events that failed to persist.",
	})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "audit_queue_depth",
		Help: "Current number of audit events waiting to be written.",
	})
	reg.MustRegister(enqueued, dropped, failures, depth)
	return &AuditMetrics{
		enqueued: enqueued,
		dropped:  dropped,
		failures: failures,
		depth:    depth,
	}
}

// IncEnqueued counts an event accepted onto the queue, labeled by outcome.
func (a *AuditMetrics) IncEnqueued(outcome string) {
	if a == nil || a.enqueued == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	a.enqueued.WithLabelValues(outcome).Inc()
}

// IncDropped counts an event rejected because the queue was full.
func (a *AuditMetrics) IncDropped() {
	if a == nil || a.dropped == nil {
		return
	}
	a.dropped.Inc()
}

// IncWriteFailure counts a persistence failure.
func (a *AuditMetrics) IncWriteFailure() {
	if a == nil || a.failures == nil {
		return
	}
	a.failures.Inc()
}

// SetQueueDepth records the current queue backlog.
func (a *AuditMetrics) SetQueueDepth(depth int) {
	if a == nil || a.depth == nil {
		return
	}
	a.depth.Set(float64(depth))
}
