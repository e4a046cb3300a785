package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestMigrationAttributes(t *testing.T) {
	attrs := MigrationAttributes("success", "db/migrations")
	if len(attrs) != 2 {
		t.Fatalf("attrs = %v, want result and path", attrs)
	}
	if attrs[0].Key != AttrResult || attrs[0].Value.AsString() != "success" {
		t.Fatalf("first attr = %v, want result=success", attrs[0])
	}

	attrs = MigrationAttributes("error", "")
	if len(attrs) != 1 {
		t.Fatalf("attrs = %v, want result only when path empty", attrs)
	}
}

func TestVisitorLabelsOmitEmptyDevice(t *testing.T) {
	if labels := VisitorLabels(""); labels != nil {
		t.Fatalf("labels = %v, want nil for empty device class", labels)
	}
	labels := VisitorLabels("Mobile")
	if labels[string(AttrDeviceClass)] != "Mobile" {
		t.Fatalf("labels = %v, want device class Mobile", labels)
	}
}

func TestCacheWriteLabels(t *testing.T) {
	labels := CacheWriteLabels("lumera.cart")
	if len(labels) != 1 || labels[string(AttrCacheKey)] != "lumera.cart" {
		t.Fatalf("labels = %v, want cache.key=lumera.cart", labels)
	}
}

func TestLabelAttributesSortedByKey(t *testing.T) {
	attrs := LabelAttributes(map[string]string{
		"store.name": "favorites",
		"cache.key":  "lumera.favorites",
	})
	want := []attribute.KeyValue{
		AttrCacheKey.String("lumera.favorites"),
		AttrStoreName.String("favorites"),
	}
	if len(attrs) != len(want) {
		t.Fatalf("attrs = %v, want %v", attrs, want)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Fatalf("attr %d = %v, want %v", i, attrs[i], want[i])
		}
	}
	if got := LabelAttributes(nil); got != nil {
		t.Fatalf("attrs = %v, want nil for empty labels", got)
	}
}
