package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenCreatesSchema(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if store.Path() != dbPath {
		t.Errorf("Path mismatch: got %s, want %s", store.Path(), dbPath)
	}

	tables := []string{
		"providers", "provider_kind_cache",
		"functions", "examples", "guides", "guide_xrefs", "options", "packages", "types",
		"function_examples", "guide_examples", "option_examples", "package_examples", "type_examples",
	}
	for _, table := range tables {
		var name string
		err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	var searchName string
	err = store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='search'").Scan(&searchName)
	if err != nil {
		t.Errorf("search virtual table not found: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store1, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	store1.Close()

	store2, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer store2.Close()
}

func TestBulkInsertFunctionsChunking(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := Open(context.Background(), filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	rows := make([]FunctionRow, 301)
	for i := range rows {
		rows[i] = FunctionRow{ProviderName: "p", Name: "fn", Format: "markdown", Data: "d"}
	}

	if err := store.InsertFunctions(context.Background(), rows); err != nil {
		t.Fatalf("InsertFunctions failed: %v", err)
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&count)
	if count != 301 {
		t.Errorf("expected 301 rows, got %d", count)
	}
}

func TestCascadeDeleteExamples(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	store, err := Open(ctx, filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	fnID, err := store.InsertFunction(ctx, FunctionRow{ProviderName: "p", Name: "map", Format: "markdown", Data: "{{NGL_EX:ex0}}"})
	if err != nil {
		t.Fatalf("InsertFunction: %v", err)
	}
	exID, err := store.InsertExample(ctx, ExampleRow{ProviderName: "p", Data: "map (x: x+1) [1 2]"})
	if err != nil {
		t.Fatalf("InsertExample: %v", err)
	}
	if err := store.InsertFunctionExample(ctx, fnID, exID, "ex0"); err != nil {
		t.Fatalf("InsertFunctionExample: %v", err)
	}

	if err := store.DeleteExamplesCascade(ctx, "p"); err != nil {
		t.Fatalf("DeleteExamplesCascade: %v", err)
	}

	var joinCount, exampleCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM function_examples").Scan(&joinCount)
	store.DB().QueryRow("SELECT COUNT(*) FROM examples").Scan(&exampleCount)
	if joinCount != 0 || exampleCount != 0 {
		t.Errorf("expected cascade to clear join and example rows, got joins=%d examples=%d", joinCount, exampleCount)
	}

	var fnCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM functions").Scan(&fnCount)
	if fnCount != 1 {
		t.Errorf("function row should survive an Example-only invalidation, got %d", fnCount)
	}
}

func TestProviderKindCache(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	store, err := Open(ctx, filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.CacheLastSynced(ctx, "p", "Function"); err != nil || ok {
		t.Fatalf("expected no cache row initially, ok=%v err=%v", ok, err)
	}

	now := time.Now()
	if err := store.SetCacheLastSynced(ctx, "p", "Function", now); err != nil {
		t.Fatalf("SetCacheLastSynced: %v", err)
	}

	ts, ok, err := store.CacheLastSynced(ctx, "p", "Function")
	if err != nil || !ok {
		t.Fatalf("expected cache row, ok=%v err=%v", ok, err)
	}
	if ts.Unix() != now.Unix() {
		t.Errorf("timestamp mismatch: got %v want %v", ts.Unix(), now.Unix())
	}
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	store, err := Open(ctx, filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.InsertFunctions(ctx, []FunctionRow{{ProviderName: "p", Name: "map", Format: "markdown", Data: "d"}}); err != nil {
		t.Fatalf("InsertFunctions: %v", err)
	}
	if err := store.InsertTypes(ctx, []TypeRow{{ProviderName: "p", Name: "Derivation", Data: "d"}}); err != nil {
		t.Fatalf("InsertTypes: %v", err)
	}

	if err := store.Reindex(ctx); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	var searchCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM search").Scan(&searchCount)
	if searchCount != 2 {
		t.Errorf("expected 2 search rows after reindex, got %d", searchCount)
	}

	hits, err := store.Search(ctx, `"map"*`, nil, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Kind != "Function" {
		t.Errorf("expected one Function hit for 'map', got %+v", hits)
	}
}
