// Package telemetry provides semantic conventions for portal observability.
package telemetry

import (
	"sort"

	"go.opentelemetry.io/otel/attribute"
)

// Semantic convention attribute keys for portal-specific telemetry.
// Following OpenTelemetry naming conventions: namespace.attribute_name

const (
	// AttrEnvironment specifies the deployment environment (dev/staging/prod) for every metric.
	AttrEnvironment = attribute.Key("environment")
	// AttrResult records the outcome of an operation (success, error class, etc.).
	AttrResult = attribute.Key("result")
	// AttrCacheKey labels cache metrics by the logical state slot being written.
	AttrCacheKey = attribute.Key("cache.key")
	// AttrDeviceClass annotates visitor metrics with the classified device bucket.
	AttrDeviceClass = attribute.Key("device.class")
	// AttrMigrationsPath identifies the migrations directory a schema operation ran from.
	AttrMigrationsPath = attribute.Key("migrations_path")
	// AttrStoreName distinguishes which state store produced a metric (cart, favorites, configurator).
	AttrStoreName = attribute.Key("store.name")
)

// LabelAttributes converts a flat metric label map into attribute key/values,
// sorted by key for deterministic instrument streams.
func LabelAttributes(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, attribute.String(key, labels[key]))
	}
	return attrs
}

// CacheWriteLabels labels cache persistence metrics with the state slot written.
func CacheWriteLabels(key string) map[string]string {
	return map[string]string{string(AttrCacheKey): key}
}

// StoreLabels labels a metric with the state store that produced it.
func StoreLabels(name string) map[string]string {
	return map[string]string{string(AttrStoreName): name}
}

// VisitorLabels labels visitor-session metrics with the classified device
// bucket. An empty class yields no labels.
func VisitorLabels(deviceClass string) map[string]string {
	if deviceClass == "" {
		return nil
	}
	return map[string]string{string(AttrDeviceClass): deviceClass}
}

// MigrationAttributes returns attributes for schema migration metrics.
func MigrationAttributes(result, path string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrResult.String(result),
	}
	if path != "" {
		attrs = append(attrs, AttrMigrationsPath.String(path))
	}
	return attrs
}
