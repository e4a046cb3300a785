package config

import (
	"fmt"
	"sync"
	"time"
)

// RuntimeConfig captures the settings tunable while the portal is running.
type RuntimeConfig struct {
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile"`
}

// DefaultRuntimeConfig returns the runtime configuration used when no
// overrides are supplied.
func DefaultRuntimeConfig() RuntimeConfig {
	var cfg RuntimeConfig
	cfg.Normalise()
	return cfg
}

// Normalise fills zero-valued fields with their defaults.
func (c *RuntimeConfig) Normalise() {
	if c == nil {
		return
	}
	c.Ingest.applyDefaults()
	c.Reconcile.applyDefaults()
}

// Validate performs semantic validation on runtime configuration fields.
func (c RuntimeConfig) Validate() error {
	if c.Ingest.RatePerSecond <= 0 {
		return fmt.Errorf("ingest.ratePerSecond must be > 0")
	}
	if c.Ingest.Burst <= 0 {
		return fmt.Errorf("ingest.burst must be > 0")
	}
	if c.Reconcile.Interval < time.Second {
		return fmt.Errorf("reconcile.interval must be at least 1s")
	}
	return nil
}

// RuntimeStore provides concurrency-safe access to runtime configuration.
type RuntimeStore struct {
	mu  sync.RWMutex
	cfg RuntimeConfig
}

// NewRuntimeStore constructs a runtime configuration store seeded with the
// supplied initial configuration.
func NewRuntimeStore(initial RuntimeConfig) (*RuntimeStore, error) {
	cfg := initial
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeStore{cfg: cfg}, nil
}

// Snapshot returns a copy of the current runtime configuration.
func (s *RuntimeStore) Snapshot() RuntimeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace swaps the current runtime configuration with the supplied payload
// after normalisation and validation.
func (s *RuntimeStore) Replace(cfg RuntimeConfig) (RuntimeConfig, error) {
	updated := cfg
	updated.Normalise()
	if err := updated.Validate(); err != nil {
		return RuntimeConfig{}, err
	}

	s.mu.Lock()
	s.cfg = updated
	s.mu.Unlock()

	return updated, nil
}

// UpdateIngest updates only the ingestion throttle section.
func (s *RuntimeStore) UpdateIngest(cfg IngestConfig) (IngestConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cfg
	merged.Ingest = cfg
	merged.Normalise()
	if err := merged.Validate(); err != nil {
		return IngestConfig{}, err
	}
	s.cfg = merged
	return merged.Ingest, nil
}

// UpdateReconcile updates only the reconciliation schedule section.
func (s *RuntimeStore) UpdateReconcile(cfg ReconcileConfig) (ReconcileConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cfg
	merged.Reconcile = cfg
	merged.Normalise()
	if err := merged.Validate(); err != nil {
		return ReconcileConfig{}, err
	}
	s.cfg = merged
	return merged.Reconcile, nil
}

// ReconcileInterval reports the current reconciliation interval.
func (s *RuntimeStore) ReconcileInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Reconcile.Interval
}
