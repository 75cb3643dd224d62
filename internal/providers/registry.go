// Package providers defines the documentation-provider contract every
// upstream source implements, the shared HTTP fetch helper they use to talk
// to the network, and the registry that assembles and drives them.
package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/refresh"
	"github.com/anthropics/ngl/internal/status"
)

// ProviderOutcome is one provider's result from a Registry.Sync call.
type ProviderOutcome struct {
	Provider string
	Outcome  refresh.Outcome
}

// Report is the aggregate result of refreshing every registered provider
// against one request.
type Report struct {
	Providers []ProviderOutcome
}

// AnySynced reports whether at least one provider produced new data, the
// trigger for reindexing the full-text search table.
func (r Report) AnySynced() bool {
	for _, p := range r.Providers {
		if p.Outcome.Kind == refresh.OutcomeSynced {
			return true
		}
	}
	return false
}

// AllFailed reports whether every provider that was asked to run failed.
func (r Report) AllFailed() bool {
	if len(r.Providers) == 0 {
		return false
	}
	for _, p := range r.Providers {
		if p.Outcome.Kind != refresh.OutcomeError {
			return false
		}
	}
	return true
}

// Registry holds every provider NGL knows about: the compiled-in ones and,
// once loaded, the config-driven meta providers. It is the single entry
// point the CLI calls to bring the store up to date.
type Registry struct {
	store       *core.Store
	broadcaster *status.Broadcaster

	mu        sync.Mutex
	providers []Provider
}

// NewRegistry builds a registry bound to store and broadcaster. Callers add
// providers with Register (or swap the whole list with Replace) before the
// first Sync.
func NewRegistry(store *core.Store, broadcaster *status.Broadcaster) *Registry {
	return &Registry{store: store, broadcaster: broadcaster}
}

// Register adds p to the set of providers this registry drives.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// Replace swaps the full provider list in one step, for meta-config
// hot-reloads where stale entries must not linger alongside fresh ones.
func (r *Registry) Replace(ps []Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = ps
}

// List returns a snapshot of the currently registered providers.
func (r *Registry) List() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Sync filters the registered providers down to those declaring at least
// one of the requested kinds (all providers, if requested is empty),
// refreshes each concurrently, and reindexes the full-text search table
// once if any provider produced new data. One goroutine per eligible
// provider, joined with a plain WaitGroup and a mutex-guarded results
// slice — no errgroup.
func (r *Registry) Sync(ctx context.Context, requested []ngldata.Kind) (Report, error) {
	var eligible []Provider
	for _, p := range r.List() {
		if len(Intersects(requested, p.Info().Kinds)) > 0 {
			eligible = append(eligible, p)
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []ProviderOutcome
	)

	for _, p := range eligible {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			out := refresh.Refresh(ctx, r.store, r.broadcaster, p, requested)
			mu.Lock()
			results = append(results, ProviderOutcome{Provider: p.Info().Name, Outcome: out})
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	report := Report{Providers: results}
	if report.AnySynced() {
		if err := r.store.Reindex(ctx); err != nil {
			return report, fmt.Errorf("reindex: %w", err)
		}
	}
	if report.AllFailed() {
		return report, fmt.Errorf("every provider failed")
	}
	return report, nil
}
