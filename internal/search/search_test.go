package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/status"
)

func openTestStore(t *testing.T) *core.Store {
	t.Helper()
	store, err := core.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, ctx context.Context, store *core.Store) {
	t.Helper()
	broadcaster := status.NewBroadcaster()
	ch := events.NewChannel(store, broadcaster, "nixdoc")
	if err := ch.Send(ctx, events.FunctionWithExamplesEvent{
		Row: core.FunctionRow{Name: "map", Format: "markdown", Data: "maps over a list\n{{NGL_EX:ex0}}"},
		Examples: []events.ExampleAttachment{
			{PlaceholderKey: "ex0", Row: core.ExampleRow{Data: "map (x: x+1) [1 2]"}},
		},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := ch.Send(ctx, events.TypeEvent{Row: core.TypeRow{Name: "mapAttrs", Data: "function signature"}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Reindex(ctx); err != nil {
		t.Fatalf("reindex: %v", err)
	}
}

func TestQueryDefaultKindsStitchesExamplesIntoHost(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seed(t, ctx, store)

	term := "map"
	results, err := Query(ctx, store, ngldata.Request{SearchTerm: &term})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	var found bool
	for _, pm := range results {
		for _, m := range pm.Matches {
			if m.Kind != ngldata.KindFunction {
				continue
			}
			fn := m.Data.(ngldata.FunctionData)
			if fn.Name != "map" {
				continue
			}
			found = true
			if fn.Content.Text != "maps over a list\nmap (x: x+1) [1 2]" {
				t.Errorf("expected example stitched into content, got %q", fn.Content.Text)
			}
		}
	}
	if !found {
		t.Fatalf("expected to find function 'map' in results: %+v", results)
	}
}

func TestQueryExcludesStandaloneExamplesByDefault(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seed(t, ctx, store)

	results, err := Query(ctx, store, ngldata.Request{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, pm := range results {
		for _, m := range pm.Matches {
			if m.Kind == ngldata.KindExample {
				t.Errorf("expected no standalone example hits by default, got %+v", m)
			}
		}
	}
}

func TestQueryStandaloneExampleWhenExplicitlyRequested(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seed(t, ctx, store)

	results, err := Query(ctx, store, ngldata.Request{Kinds: []ngldata.Kind{ngldata.KindExample}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	var found bool
	for _, pm := range results {
		for _, m := range pm.Matches {
			if m.Kind != ngldata.KindExample {
				continue
			}
			found = true
			ex := m.Data.(ngldata.ExampleData)
			if ex.Source == nil || ex.Source.HostKind != ngldata.KindFunction {
				t.Errorf("expected example's source to resolve to its host function, got %+v", ex.Source)
			}
		}
	}
	if !found {
		t.Fatalf("expected a standalone example hit when Example is explicitly requested: %+v", results)
	}
}

func TestQueryFiltersByProvider(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seed(t, ctx, store)

	results, err := Query(ctx, store, ngldata.Request{Providers: []string{"someone-else"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for an unrelated provider filter, got %+v", results)
	}
}
