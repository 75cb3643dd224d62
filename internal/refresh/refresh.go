// Package refresh drives a single provider through one sync cycle: decide
// what is stale, invalidate it, run the provider, and record what landed.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
	"github.com/anthropics/ngl/internal/status"
)

// defaultSyncIntervalHours is used when a provider's Information carries no
// SyncIntervalHours of its own.
const defaultSyncIntervalHours = 24

// OutcomeKind distinguishes why a Refresh call returned what it did.
type OutcomeKind int

const (
	// OutcomeSynced means the provider ran and its counts reflect new data.
	OutcomeSynced OutcomeKind = iota
	// OutcomeNoWork means the provider declares none of the requested kinds,
	// or every one it declares was still within its sync interval, so
	// nothing was invalidated and the provider never ran.
	OutcomeNoWork
	// OutcomeError means the refresh failed; Err carries the cause.
	OutcomeError
)

// Outcome reports what one provider's refresh cycle did.
type Outcome struct {
	Kind     OutcomeKind
	Provider string
	Counts   status.CountsSnapshot
	Err      error
}

// Refresh runs the full invalidate-then-sync cycle for one provider,
// restricted to the intersection of requested and the provider's declared
// kinds. Kinds whose cache entry is still within the provider's sync
// interval are left untouched. If the provider declares Example alongside
// any host kind, syncing one host kind forces Example (and vice versa) to
// keep stitched examples coherent with their hosts.
func Refresh(ctx context.Context, store *core.Store, broadcaster *status.Broadcaster, provider providers.Provider, requested []ngldata.Kind) Outcome {
	info := provider.Info()

	interval := time.Duration(defaultSyncIntervalHours) * time.Hour
	if info.SyncIntervalHours > 0 {
		interval = time.Duration(info.SyncIntervalHours) * time.Hour
	}

	now := time.Now()
	candidates := providers.Intersects(requested, info.Kinds)
	if len(candidates) == 0 {
		return Outcome{Kind: OutcomeNoWork, Provider: info.Name}
	}

	toSync := make(map[ngldata.Kind]bool, len(candidates))
	for _, k := range candidates {
		stale, err := isStale(ctx, store, info.Name, k, now, interval)
		if err != nil {
			return Outcome{Kind: OutcomeError, Provider: info.Name, Err: err}
		}
		if stale {
			toSync[k] = true
		}
	}

	if err := enforceExampleCoherence(ctx, store, info, toSync); err != nil {
		return Outcome{Kind: OutcomeError, Provider: info.Name, Err: err}
	}

	if len(toSync) == 0 {
		return Outcome{Kind: OutcomeNoWork, Provider: info.Name}
	}

	for k := range toSync {
		if err := invalidate(ctx, store, info.Name, k); err != nil {
			return Outcome{Kind: OutcomeError, Provider: info.Name, Err: fmt.Errorf("invalidate %s: %w", k, err)}
		}
	}

	if err := store.UpsertProvider(ctx, info.Name, now); err != nil {
		return Outcome{Kind: OutcomeError, Provider: info.Name, Err: err}
	}

	toSyncList := make([]ngldata.Kind, 0, len(toSync))
	for k := range toSync {
		toSyncList = append(toSyncList, k)
	}

	ch := events.NewChannel(store, broadcaster, info.Name)
	syncErr := provider.Sync(ctx, ch, toSyncList)
	waitErr := ch.CloseAndWait(ctx)
	counts := ch.Counts()

	if syncErr != nil {
		return Outcome{Kind: OutcomeError, Provider: info.Name, Counts: counts, Err: fmt.Errorf("sync: %w", syncErr)}
	}
	if waitErr != nil {
		return Outcome{Kind: OutcomeError, Provider: info.Name, Counts: counts, Err: fmt.Errorf("consume: %w", waitErr)}
	}

	for k := range toSync {
		if err := store.SetCacheLastSynced(ctx, info.Name, string(k), now); err != nil {
			return Outcome{Kind: OutcomeError, Provider: info.Name, Counts: counts, Err: err}
		}
	}

	return Outcome{Kind: OutcomeSynced, Provider: info.Name, Counts: counts}
}

func isStale(ctx context.Context, store *core.Store, provider string, k ngldata.Kind, now time.Time, interval time.Duration) (bool, error) {
	last, ok, err := store.CacheLastSynced(ctx, provider, string(k))
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= interval, nil
}

// enforceExampleCoherence keeps stitched examples from drifting out of sync
// with the hosts that embed them: if any declared host kind is about to be
// resynced, Example is pulled in too (and vice versa), provided the provider
// actually declares the kind being added and has synced it before.
func enforceExampleCoherence(ctx context.Context, store *core.Store, info providers.Information, toSync map[ngldata.Kind]bool) error {
	if !info.DeclaresKind(ngldata.KindExample) {
		return nil
	}

	hostSyncing := false
	for _, h := range ngldata.HostKinds {
		if toSync[h] {
			hostSyncing = true
			break
		}
	}

	if hostSyncing && !toSync[ngldata.KindExample] {
		if _, ok, err := store.CacheLastSynced(ctx, info.Name, string(ngldata.KindExample)); err != nil {
			return err
		} else if ok {
			toSync[ngldata.KindExample] = true
		}
	}

	if toSync[ngldata.KindExample] {
		for _, h := range ngldata.HostKinds {
			if !info.DeclaresKind(h) || toSync[h] {
				continue
			}
			if _, ok, err := store.CacheLastSynced(ctx, info.Name, string(h)); err != nil {
				return err
			} else if ok {
				toSync[h] = true
			}
		}
	}

	return nil
}

func invalidate(ctx context.Context, store *core.Store, provider string, k ngldata.Kind) error {
	switch k {
	case ngldata.KindFunction:
		return store.DeleteFunctions(ctx, provider)
	case ngldata.KindOption:
		return store.DeleteOptions(ctx, provider)
	case ngldata.KindPackage:
		return store.DeletePackages(ctx, provider)
	case ngldata.KindType:
		return store.DeleteTypes(ctx, provider)
	case ngldata.KindExample:
		return store.DeleteExamplesCascade(ctx, provider)
	case ngldata.KindGuide:
		return store.DeleteGuidesCascade(ctx, provider)
	default:
		return fmt.Errorf("unknown kind %q", k)
	}
}
