package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
environment: dev
apiServer:
  addr: ":8080"
telemetry:
  serviceName: lumera-portal
cache:
  backend: sqlite
  path: /tmp/portal.db
database:
  dsn: postgresql://localhost:5432/lumera_test
remote:
  wishlist_url: https://api.lumera.example/wishlist
  configs_url: https://api.lumera.example/configs
  visitors_url: https://api.lumera.example/visitors
  catalog_url: https://api.lumera.example/catalog
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvDev {
		t.Errorf("environment = %q, want dev", cfg.Environment)
	}
	if cfg.Cache.Backend != CacheSQLite {
		t.Errorf("cache backend = %q, want sqlite", cfg.Cache.Backend)
	}
	if cfg.Remote.WishlistURL != "https://api.lumera.example/wishlist" {
		t.Errorf("wishlist url = %q", cfg.Remote.WishlistURL)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.MaxConns != 8 {
		t.Errorf("maxConns = %d, want default 8", cfg.Database.MaxConns)
	}
	if cfg.Ingest.RatePerSecond != 50 || cfg.Ingest.Burst != 100 {
		t.Errorf("ingest defaults = %v/%v, want 50/100", cfg.Ingest.RatePerSecond, cfg.Ingest.Burst)
	}
	if cfg.Reconcile.Interval != 5*time.Minute {
		t.Errorf("reconcile interval = %v, want 5m", cfg.Reconcile.Interval)
	}
}

func TestLoadNormalisesEnvironment(t *testing.T) {
	contents := strings.Replace(validYAML, "environment: dev", "environment: \"  PROD \"", 1)
	cfg, err := Load(context.Background(), writeConfig(t, contents))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvProd {
		t.Errorf("environment = %q, want prod", cfg.Environment)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "unknown environment",
			mutate:  func(s string) string { return strings.Replace(s, "environment: dev", "environment: local", 1) },
			wantSub: "environment",
		},
		{
			name:    "missing addr",
			mutate:  func(s string) string { return strings.Replace(s, `addr: ":8080"`, `addr: ""`, 1) },
			wantSub: "addr",
		},
		{
			name: "unknown cache backend",
			mutate: func(s string) string {
				return strings.Replace(s, "backend: sqlite", "backend: redis", 1)
			},
			wantSub: "cache",
		},
		{
			name: "missing wishlist endpoint",
			mutate: func(s string) string {
				return strings.Replace(s, "wishlist_url: https://api.lumera.example/wishlist", `wishlist_url: ""`, 1)
			},
			wantSub: "wishlist_url",
		},
		{
			name: "missing service name",
			mutate: func(s string) string {
				return strings.Replace(s, "serviceName: lumera-portal", `serviceName: ""`, 1)
			},
			wantSub: "serviceName",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tt.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
