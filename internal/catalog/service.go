package catalog

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"

	"github.com/lumera/portal/internal/cache"
	"github.com/lumera/portal/internal/observability"
)

const warmUpMaxInterval = 15 * time.Second

// Service merges the live assignment catalog with locally cached product
// overrides. Overrides are additive: a product present only in the override
// blob still counts as a valid identifier.
type Service struct {
	source UniverseProvider
	cache  cache.Store
}

// NewService constructs a Service. The cache may be nil, in which case only
// the live source is consulted.
func NewService(source UniverseProvider, kv cache.Store) *Service {
	return &Service{source: source, cache: kv}
}

// Universe fetches the live universe and folds in cached overrides. A source
// failure is returned as-is so callers can apply their own fail-safe policy;
// a malformed override blob is ignored rather than treated as fatal.
func (s *Service) Universe(ctx context.Context) (Universe, error) {
	live, err := s.source.Universe(ctx)
	if err != nil {
		return nil, err
	}
	merged := make(Universe, len(live))
	for id := range live {
		merged[id] = struct{}{}
	}
	for _, p := range s.overrides(ctx) {
		if p.ID != "" {
			merged[p.ID] = struct{}{}
		}
	}
	return merged, nil
}

// WarmUp retries the first universe fetch with exponential backoff until it
// succeeds or ctx is cancelled. Only boot uses this; steady-state callers get
// the single-attempt Universe so that a failed reconciliation pass simply
// waits for its next natural trigger.
func (s *Service) WarmUp(ctx context.Context) (Universe, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = warmUpMaxInterval

	for {
		universe, err := s.Universe(ctx)
		if err == nil {
			return universe, nil
		}
		observability.Log().Error("catalog warm-up fetch failed", observability.Field{Key: "error", Value: err})

		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = warmUpMaxInterval
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func (s *Service) overrides(ctx context.Context) []Product {
	if s.cache == nil {
		return nil
	}
	blob, err := s.cache.Get(ctx, cache.KeyProductOverrides)
	if err != nil {
		if !cache.NotFound(err) {
			observability.Log().Debug("product overrides unavailable", observability.Field{Key: "error", Value: err})
		}
		return nil
	}
	var products []Product
	if err := json.Unmarshal(blob, &products); err != nil {
		// Malformed cached JSON degrades to "no overrides".
		observability.Log().Debug("product overrides malformed", observability.Field{Key: "error", Value: err})
		return nil
	}
	return products
}
