package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestBridgeCounterRecordsWithAttributes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bridge := NewBridge(provider.Meter("test"), "dev")

	bridge.IncCounter("lumera_cache_writes_total", 1, CacheWriteLabels("lumera.cart"))
	bridge.IncCounter("lumera_cache_writes_total", 2, CacheWriteLabels("lumera.cart"))

	m, ok := findMetric(collect(t, reader), "lumera_cache_writes_total")
	if !ok {
		t.Fatal("counter not exported")
	}
	sum, ok := m.Data.(metricdata.Sum[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", m.Data)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("data points = %d, want 1", len(sum.DataPoints))
	}
	point := sum.DataPoints[0]
	if point.Value != 3 {
		t.Fatalf("counter value = %v, want 3", point.Value)
	}
	if key, ok := point.Attributes.Value(AttrCacheKey); !ok || key.AsString() != "lumera.cart" {
		t.Fatalf("cache.key attribute missing: %v", point.Attributes.ToSlice())
	}
	if env, ok := point.Attributes.Value(AttrEnvironment); !ok || env.AsString() != "dev" {
		t.Fatalf("environment attribute missing: %v", point.Attributes.ToSlice())
	}
}

func TestBridgeGaugeKeepsLatestValue(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bridge := NewBridge(provider.Meter("test"), "")

	bridge.SetGauge("lumera_live_feed_clients", 2, nil)
	bridge.SetGauge("lumera_live_feed_clients", 5, nil)

	m, ok := findMetric(collect(t, reader), "lumera_live_feed_clients")
	if !ok {
		t.Fatal("gauge not exported")
	}
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", m.Data)
	}
	if len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 5 {
		t.Fatalf("gauge data = %v, want single point 5", gauge.DataPoints)
	}
	if gauge.DataPoints[0].Attributes.Len() != 0 {
		t.Fatalf("expected no attributes without environment, got %v",
			gauge.DataPoints[0].Attributes.ToSlice())
	}
}
