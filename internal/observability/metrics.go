package observability

import (
	"sync"

	"github.com/lumera/portal/internal/infra/telemetry"
)

// Metric names exported through the global metrics seam alongside the
// in-memory state snapshot.
const (
	metricCacheWrites     = "lumera_cache_writes_total"
	metricReconcilePrunes = "lumera_favorites_prunes_total"
	metricPushRetries     = "lumera_remote_push_retries_total"
	metricHistoryDepth    = "lumera_configurator_history_depth"
	metricLiveFeedClients = "lumera_live_feed_clients"
)

// Metrics provides counter and gauge recording primitives.
type Metrics interface {
	IncCounter(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

var defaultMetrics Metrics = noopMetrics{}

// SetMetrics overrides the global metrics implementation used by the portal.
func SetMetrics(metrics Metrics) {
	if metrics == nil {
		defaultMetrics = noopMetrics{}
		return
	}
	defaultMetrics = metrics
}

// Telemetry returns the current global metrics collector.
func Telemetry() Metrics {
	return defaultMetrics
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, float64, map[string]string) {}
func (noopMetrics) SetGauge(string, float64, map[string]string)   {}

// StateMetricsSnapshot captures store-focused runtime counters.
type StateMetricsSnapshot struct {
	CacheWrites       map[string]int `json:"cache_writes"`
	ReconcilePrunes   int            `json:"reconcile_prunes"`
	RemotePushRetries int            `json:"remote_push_retries"`
	HistoryDepth      int            `json:"history_depth"`
	LiveFeedClients   int            `json:"live_feed_clients"`
}

// RuntimeMetrics accumulates store metrics in-memory for periodic export.
type RuntimeMetrics struct {
	mu    sync.Mutex
	state StateMetricsSnapshot
}

// NewRuntimeMetrics constructs a metrics accumulator with empty maps.
func NewRuntimeMetrics() *RuntimeMetrics {
	metrics := new(RuntimeMetrics)
	metrics.state = StateMetricsSnapshot{
		CacheWrites: make(map[string]int),
	}
	return metrics
}

// RecordCacheWrite increments the persisted-write counter for a cache key.
func (m *RuntimeMetrics) RecordCacheWrite(key string) {
	m.mu.Lock()
	m.state.CacheWrites[key]++
	m.mu.Unlock()
	Telemetry().IncCounter(metricCacheWrites, 1, telemetry.CacheWriteLabels(key))
}

// RecordReconcilePrune accumulates pruned favorite references.
func (m *RuntimeMetrics) RecordReconcilePrune(count int) {
	m.mu.Lock()
	m.state.ReconcilePrunes += count
	m.mu.Unlock()
	Telemetry().IncCounter(metricReconcilePrunes, float64(count), telemetry.StoreLabels("favorites"))
}

// RecordPushRetry counts wishlist pushes deferred to the next reconciliation pass.
func (m *RuntimeMetrics) RecordPushRetry() {
	m.mu.Lock()
	m.state.RemotePushRetries++
	m.mu.Unlock()
	Telemetry().IncCounter(metricPushRetries, 1, telemetry.StoreLabels("favorites"))
}

// RecordHistoryDepth tracks the latest configurator history length.
func (m *RuntimeMetrics) RecordHistoryDepth(depth int) {
	m.mu.Lock()
	m.state.HistoryDepth = depth
	m.mu.Unlock()
	Telemetry().SetGauge(metricHistoryDepth, float64(depth), telemetry.StoreLabels("configurator"))
}

// RecordLiveFeedClients tracks the number of connected dashboard feeds.
func (m *RuntimeMetrics) RecordLiveFeedClients(count int) {
	m.mu.Lock()
	m.state.LiveFeedClients = count
	m.mu.Unlock()
	Telemetry().SetGauge(metricLiveFeedClients, float64(count), nil)
}

// Snapshot copies the current metrics state for reporting.
func (m *RuntimeMetrics) Snapshot() StateMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := StateMetricsSnapshot{
		CacheWrites:       make(map[string]int, len(m.state.CacheWrites)),
		ReconcilePrunes:   m.state.ReconcilePrunes,
		RemotePushRetries: m.state.RemotePushRetries,
		HistoryDepth:      m.state.HistoryDepth,
		LiveFeedClients:   m.state.LiveFeedClients,
	}
	for k, v := range m.state.CacheWrites {
		out.CacheWrites[k] = v
	}
	return out
}
