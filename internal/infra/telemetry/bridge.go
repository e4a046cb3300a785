package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Bridge adapts the portal's metrics seam onto an OpenTelemetry meter.
// Instruments are created lazily per metric name and cached; the deployment
// environment is attached to every recorded value.
type Bridge struct {
	meter       metric.Meter
	environment string

	mu       sync.Mutex
	counters map[string]metric.Float64Counter
	gauges   map[string]metric.Float64Gauge
}

// NewBridge builds a bridge over the supplied meter. An empty environment
// omits the environment attribute.
func NewBridge(meter metric.Meter, environment string) *Bridge {
	return &Bridge{
		meter:       meter,
		environment: environment,
		counters:    make(map[string]metric.Float64Counter),
		gauges:      make(map[string]metric.Float64Gauge),
	}
}

// IncCounter adds value to the named counter.
func (b *Bridge) IncCounter(name string, value float64, labels map[string]string) {
	counter := b.counter(name)
	if counter == nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(b.attributes(labels)...))
}

// SetGauge records value on the named gauge.
func (b *Bridge) SetGauge(name string, value float64, labels map[string]string) {
	gauge := b.gauge(name)
	if gauge == nil {
		return
	}
	gauge.Record(context.Background(), value, metric.WithAttributes(b.attributes(labels)...))
}

func (b *Bridge) counter(name string) metric.Float64Counter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if counter, ok := b.counters[name]; ok {
		return counter
	}
	counter, err := b.meter.Float64Counter(name)
	if err != nil {
		return nil
	}
	b.counters[name] = counter
	return counter
}

func (b *Bridge) gauge(name string) metric.Float64Gauge {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gauge, ok := b.gauges[name]; ok {
		return gauge
	}
	gauge, err := b.meter.Float64Gauge(name)
	if err != nil {
		return nil
	}
	b.gauges[name] = gauge
	return gauge
}

func (b *Bridge) attributes(labels map[string]string) []attribute.KeyValue {
	attrs := LabelAttributes(labels)
	if b.environment != "" {
		attrs = append(attrs, AttrEnvironment.String(b.environment))
	}
	return attrs
}
