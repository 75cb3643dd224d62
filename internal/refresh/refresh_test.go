package refresh

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
	"github.com/anthropics/ngl/internal/status"
)

func pastEnoughToBeStale() time.Time {
	return time.Now().Add(-48 * time.Hour)
}

func openTestStore(t *testing.T) *core.Store {
	t.Helper()
	store, err := core.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type fakeProvider struct {
	info    providers.Information
	syncs   int
	emit    func(ch *events.Channel, requested []ngldata.Kind) error
	lastReq []ngldata.Kind
}

func (f *fakeProvider) Info() providers.Information { return f.info }

func (f *fakeProvider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	f.syncs++
	f.lastReq = requested
	if f.emit == nil {
		return nil
	}
	return f.emit(ch, requested)
}

func TestRefreshSyncsOnFirstRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	p := &fakeProvider{
		info: providers.Information{Name: "example", Kinds: []ngldata.Kind{ngldata.KindFunction}},
		emit: func(ch *events.Channel, requested []ngldata.Kind) error {
			return ch.Send(context.Background(), events.FunctionEvent{
				Row: core.FunctionRow{Name: "banana", Format: "markdown", Data: "d"},
			})
		},
	}

	out := Refresh(ctx, store, broadcaster, p, nil)
	if out.Kind != OutcomeSynced {
		t.Fatalf("expected OutcomeSynced, got %v (err=%v)", out.Kind, out.Err)
	}
	if out.Counts.Functions != 1 {
		t.Errorf("expected 1 function counted, got %+v", out.Counts)
	}
	if p.syncs != 1 {
		t.Errorf("expected provider.Sync called once, got %d", p.syncs)
	}
}

func TestRefreshNoWorkWhenCacheFresh(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	p := &fakeProvider{
		info: providers.Information{Name: "example", Kinds: []ngldata.Kind{ngldata.KindFunction}},
	}

	first := Refresh(ctx, store, broadcaster, p, nil)
	if first.Kind != OutcomeSynced {
		t.Fatalf("expected first call to sync, got %v", first.Kind)
	}

	second := Refresh(ctx, store, broadcaster, p, nil)
	if second.Kind != OutcomeNoWork {
		t.Errorf("expected second call to be a no-op, got %v (err=%v)", second.Kind, second.Err)
	}
	if p.syncs != 1 {
		t.Errorf("expected provider.Sync not called again, got %d total calls", p.syncs)
	}
}

func TestRefreshRequestedKindOutsideDeclaredIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	p := &fakeProvider{
		info: providers.Information{Name: "example", Kinds: []ngldata.Kind{ngldata.KindFunction}},
	}

	out := Refresh(ctx, store, broadcaster, p, []ngldata.Kind{ngldata.KindPackage})
	if out.Kind != OutcomeNoWork {
		t.Errorf("expected OutcomeNoWork for a kind this provider doesn't declare, got %v", out.Kind)
	}
	if p.syncs != 0 {
		t.Errorf("expected provider.Sync never called, got %d", p.syncs)
	}
}

func TestRefreshPullsInExampleAlongsideHost(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	p := &fakeProvider{
		info: providers.Information{Name: "nixdoc", Kinds: []ngldata.Kind{ngldata.KindFunction, ngldata.KindExample}},
		emit: func(ch *events.Channel, requested []ngldata.Kind) error {
			return ch.Send(context.Background(), events.FunctionEvent{
				Row: core.FunctionRow{Name: "map", Format: "markdown", Data: "d"},
			})
		},
	}

	// First sync establishes cache entries for both Function and Example.
	if out := Refresh(ctx, store, broadcaster, p, nil); out.Kind != OutcomeSynced {
		t.Fatalf("expected first refresh to sync, got %v", out.Kind)
	}

	// Force Function stale but leave Example's cache entry untouched by
	// directly rewinding only the function cache row.
	if err := store.SetCacheLastSynced(ctx, "nixdoc", "Function", pastEnoughToBeStale()); err != nil {
		t.Fatalf("rewind cache: %v", err)
	}

	out := Refresh(ctx, store, broadcaster, p, []ngldata.Kind{ngldata.KindFunction})
	if out.Kind != OutcomeSynced {
		t.Fatalf("expected second refresh to sync, got %v (err=%v)", out.Kind, out.Err)
	}
	if len(p.lastReq) != 2 {
		t.Errorf("expected Example to be pulled in alongside Function, got %v", p.lastReq)
	}
}
