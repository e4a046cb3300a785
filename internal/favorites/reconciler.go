package favorites

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/lumera/portal/internal/catalog"
	"github.com/lumera/portal/internal/observability"
)

// WishlistClient talks to the remote wishlist endpoint. The server-side list
// is replaced wholesale on push; callers must send the full desired list.
type WishlistClient interface {
	Fetch(ctx context.Context) ([]string, error)
	Push(ctx context.Context, ids []string) error
}

// Reconciler reconciles the remote wishlist against the valid-identifier
// universe, pruning references to products that have since been retired or
// renamed upstream, and opportunistically pushing the corrected list back.
//
// The protocol is fail-safe: an unreachable universe never prunes, and a
// failed push leaves the pruned local view in place with the push retried on
// the next pass. Running it twice with an unchanged universe issues no second
// remote write.
type Reconciler struct {
	store    *Store
	client   WishlistClient
	universe catalog.UniverseProvider
	metrics  *observability.RuntimeMetrics

	mu          sync.Mutex
	gen         atomic.Uint64
	pendingPush bool
}

// NewReconciler wires the reconciliation service. Metrics may be nil.
func NewReconciler(store *Store, client WishlistClient, universe catalog.UniverseProvider, metrics *observability.RuntimeMetrics) *Reconciler {
	return &Reconciler{
		store:    store,
		client:   client,
		universe: universe,
		metrics:  metrics,
	}
}

// Reconcile runs one full pass: fetch the authoritative wishlist and the
// valid universe in parallel, intersect, push back only if something was
// pruned (or a previous push is still owed), and commit the result locally.
//
// Each pass carries a generation number; a pass that was overtaken by a newer
// one discards its result instead of clobbering newer state.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	generation := r.gen.Add(1)

	var (
		remote      []string
		universe    catalog.Universe
		fetchErr    error
		universeErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		remote, fetchErr = r.client.Fetch(ctx)
	})
	wg.Go(func() {
		universe, universeErr = r.universe.Universe(ctx)
	})
	wg.Wait()

	if fetchErr != nil {
		return fmt.Errorf("fetch remote wishlist: %w", fetchErr)
	}
	remote = dedupe(remote)

	valid := remote
	pruned := 0
	if universeErr != nil {
		// Fail safe: without a universe we cannot tell valid from stale,
		// so nothing is pruned.
		observability.Log().Error("valid universe unavailable, skipping prune",
			observability.Field{Key: "error", Value: universeErr})
	} else {
		valid = intersect(remote, universe)
		pruned = len(remote) - len(valid)
	}

	// Commit phase. The generation is re-checked under the commit lock so a
	// pass that was overtaken while fetching (or pushing) never writes over
	// the newer pass's result.
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.gen.Load() {
		observability.Log().Debug("reconcile pass superseded, discarding result")
		return nil
	}

	if pruned > 0 || (r.pendingPush && universeErr == nil) {
		if err := r.client.Push(ctx, valid); err != nil {
			r.pendingPush = true
			if r.metrics != nil {
				r.metrics.RecordPushRetry()
			}
			observability.Log().Error("wishlist push failed, will retry next pass",
				observability.Field{Key: "error", Value: err})
		} else {
			r.pendingPush = false
		}
	}
	if pruned > 0 && r.metrics != nil {
		r.metrics.RecordReconcilePrune(pruned)
	}

	if generation != r.gen.Load() {
		observability.Log().Debug("reconcile pass superseded during push, discarding result")
		return nil
	}

	if err := r.store.replace(ctx, valid); err != nil {
		return fmt.Errorf("commit reconciled favorites: %w", err)
	}
	return nil
}

// RemoveAndSync removes id locally, then pushes the resulting full list to
// the remote endpoint. A failed push does not roll the local removal back;
// responsiveness is favoured over strict consistency and the push is owed to
// the next reconciliation pass.
func (r *Reconciler) RemoveAndSync(ctx context.Context, id string) error {
	if err := r.store.Remove(ctx, id); err != nil {
		return err
	}
	if err := r.client.Push(ctx, r.store.IDs()); err != nil {
		r.setPendingPush(true)
		if r.metrics != nil {
			r.metrics.RecordPushRetry()
		}
		observability.Log().Error("wishlist push after removal failed",
			observability.Field{Key: "id", Value: id},
			observability.Field{Key: "error", Value: err})
	}
	return nil
}

func (r *Reconciler) setPendingPush(v bool) {
	r.mu.Lock()
	r.pendingPush = v
	r.mu.Unlock()
}

func intersect(ids []string, universe catalog.Universe) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if universe.Contains(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
