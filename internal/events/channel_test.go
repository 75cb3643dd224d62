package events

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anthropics/ngl/internal/core"
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

func TestFunctionWithOneExample(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	ch := NewChannel(store, broadcaster, "nixdoc")
	err := ch.Send(ctx, FunctionWithExamplesEvent{
		Row: core.FunctionRow{Name: "map", Format: "markdown", Data: "{{NGL_EX:ex0}}"},
		Examples: []ExampleAttachment{
			{PlaceholderKey: "ex0", Row: core.ExampleRow{Data: "map (x: x+1) [1 2]"}},
		},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var fnCount, exCount, joinCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&fnCount)
	store.DB().QueryRow("SELECT COUNT(*) FROM examples").Scan(&exCount)
	store.DB().QueryRow("SELECT COUNT(*) FROM function_examples WHERE placeholder_key = 'ex0'").Scan(&joinCount)

	if fnCount != 1 || exCount != 1 || joinCount != 1 {
		t.Errorf("expected 1 function, 1 example, 1 join row; got %d %d %d", fnCount, exCount, joinCount)
	}
}

func TestBatchBoundaryFlushing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	ch := NewChannel(store, broadcaster, "nixpkgs")
	for i := 0; i < 601; i++ {
		if err := ch.Send(ctx, FunctionEvent{Row: core.FunctionRow{Name: "fn", Format: "markdown", Data: "d"}}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&count)
	if count != 601 {
		t.Errorf("expected 601 function rows, got %d", count)
	}
}

func TestGuideXrefResolvedAfterClose(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	ch := NewChannel(store, broadcaster, "nixdoc")
	sends := []Event{
		GuideEvent{Row: core.GuideRow{Link: "/a", Title: "A", Format: "markdown", Data: "d"}},
		GuideEvent{Row: core.GuideRow{Link: "/a#s", Title: "A section", Format: "markdown", Data: "d"}},
		GuideXrefEvent{ParentLink: "/a", ChildLink: "/a#s"},
	}
	for _, ev := range sends {
		if err := ch.Send(ctx, ev); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	parentID, ok, err := store.LookupGuideIDByLink(ctx, "nixdoc", "/a")
	if err != nil || !ok {
		t.Fatalf("lookup parent: ok=%v err=%v", ok, err)
	}
	childID, ok, err := store.LookupGuideIDByLink(ctx, "nixdoc", "/a#s")
	if err != nil || !ok {
		t.Fatalf("lookup child: ok=%v err=%v", ok, err)
	}

	parentLink, ok, err := store.GuideParentLink(ctx, childID)
	if err != nil || !ok || parentLink != "/a" {
		t.Errorf("expected child's parent link to be /a, got %q ok=%v err=%v", parentLink, ok, err)
	}

	subLinks, err := store.GuideSubLinks(ctx, parentID)
	if err != nil || len(subLinks) != 1 || subLinks[0] != "/a#s" {
		t.Errorf("expected parent's sub links to contain /a#s, got %v err=%v", subLinks, err)
	}
}

func TestUnresolvableGuideXrefIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	broadcaster := status.NewBroadcaster()

	ch := NewChannel(store, broadcaster, "nixdoc")
	if err := ch.Send(ctx, GuideXrefEvent{ParentLink: "/missing", ChildLink: "/also-missing"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait should not fail on an unresolvable xref: %v", err)
	}
}
