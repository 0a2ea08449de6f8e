package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestAuditMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewAuditMetrics(reg)

	metrics.IncEnqueued("success")
	metrics.IncEnqueued("success")
	metrics.IncEnqueued("failed")
	metrics.IncDropped()
	metrics.IncWriteFailure()
	metrics.SetQueueDepth(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "audit_events_enqueued_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch enqueued: %v", err)
	} else if got != 2 {
		t.Fatalf("expected enqueued success=2, got %f", got)
	}

	if mf := findMetricFamily(mfs, "audit_events_dropped_total"); mf == nil {
		t.Fatal("dropped counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected dropped=1")
	}

	if mf := findMetricFamily(mfs, "audit_queue_depth"); mf == nil {
		t.Fatal("queue depth gauge not registered")
	} else if mf.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatal("expected depth=3")
	}
}

func TestAuditMetricsNilSafe(t *testing.T) {
	var metrics *AuditMetrics
	metrics.IncEnqueued("success")
	metrics.IncDropped()
	metrics.IncWriteFailure()
	metrics.SetQueueDepth(1)

	empty := NewAuditMetrics(nil)
	empty.IncEnqueued("failed")
	empty.SetQueueDepth(2)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
