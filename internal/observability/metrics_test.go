package observability

import "testing"

type captureMetrics struct {
	counters map[string]float64
	gauges   map[string]float64
	labels   map[string]map[string]string
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		labels:   make(map[string]map[string]string),
	}
}

func (c *captureMetrics) IncCounter(name string, value float64, labels map[string]string) {
	c.counters[name] += value
	c.labels[name] = labels
}

func (c *captureMetrics) SetGauge(name string, value float64, labels map[string]string) {
	c.gauges[name] = value
	c.labels[name] = labels
}

func TestRuntimeMetricsForwardThroughSeam(t *testing.T) {
	capture := newCaptureMetrics()
	SetMetrics(capture)
	defer SetMetrics(nil)

	m := NewRuntimeMetrics()
	m.RecordCacheWrite("lumera.cart")
	m.RecordCacheWrite("lumera.cart")
	m.RecordReconcilePrune(3)
	m.RecordPushRetry()
	m.RecordHistoryDepth(4)
	m.RecordLiveFeedClients(2)

	if got := capture.counters[metricCacheWrites]; got != 2 {
		t.Errorf("cache write counter = %v, want 2", got)
	}
	if got := capture.labels[metricCacheWrites]["cache.key"]; got != "lumera.cart" {
		t.Errorf("cache write labels = %v", capture.labels[metricCacheWrites])
	}
	if got := capture.counters[metricReconcilePrunes]; got != 3 {
		t.Errorf("prune counter = %v, want 3", got)
	}
	if got := capture.labels[metricReconcilePrunes]["store.name"]; got != "favorites" {
		t.Errorf("prune labels = %v", capture.labels[metricReconcilePrunes])
	}
	if got := capture.counters[metricPushRetries]; got != 1 {
		t.Errorf("push retry counter = %v, want 1", got)
	}
	if got := capture.gauges[metricHistoryDepth]; got != 4 {
		t.Errorf("history depth gauge = %v, want 4", got)
	}
	if got := capture.gauges[metricLiveFeedClients]; got != 2 {
		t.Errorf("live feed gauge = %v, want 2", got)
	}

	snap := m.Snapshot()
	if snap.CacheWrites["lumera.cart"] != 2 || snap.ReconcilePrunes != 3 {
		t.Errorf("in-memory snapshot diverged: %+v", snap)
	}
}

func TestSetMetricsNilRestoresNoop(t *testing.T) {
	SetMetrics(newCaptureMetrics())
	SetMetrics(nil)
	Telemetry().IncCounter("anything", 1, nil)
	Telemetry().SetGauge("anything", 1, nil)
}
