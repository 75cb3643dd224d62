// Package core is the entity store: the embedded SQL engine that backs
// every documentation kind, the full-text index that mirrors it, and the
// migration that creates both at startup.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	_ "modernc.org/sqlite"
)

// maxBatchRows is the bulk-insertion chunk size: the entity store's bound on
// parameters per statement means any homogeneous batch larger than this is
// split into multiple multi-row INSERTs.
const maxBatchRows = 150

// Store is the SQLite-backed entity store shared by every provider refresh
// and by the query engine. A single handle is passed explicitly through the
// call graph; it is never stored in a package-level singleton.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex // serializes schema-affecting operations (migrate, reindex)
	ctx    context.Context
	cancel context.CancelFunc
}

// Open creates or attaches to the database at databaseURL (a file path;
// "file::memory:?cache=shared" works for tests) and runs the migration.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("open database: empty database url")
	}

	dsn := databaseURL
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storeCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:     db,
		path:   databaseURL,
		ctx:    storeCtx,
		cancel: cancel,
	}

	if err := s.migrate(ctx); err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// DB returns the underlying connection pool for callers that need raw SQL
// access (the query engine's FTS match, mainly).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database location Open was called with.
func (s *Store) Path() string {
	return s.path
}

// migrate creates every entity-store table and the search virtual table,
// idempotently, in dependency order (providers before content, content
// before join tables).
func (s *Store) migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const schema = `
	CREATE TABLE IF NOT EXISTS providers (
		name         TEXT PRIMARY KEY,
		last_updated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS provider_kind_cache (
		provider_name TEXT NOT NULL,
		kind          TEXT NOT NULL,
		last_synced   INTEGER NOT NULL,
		PRIMARY KEY (provider_name, kind)
	);

	CREATE TABLE IF NOT EXISTS functions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name   TEXT NOT NULL,
		name            TEXT NOT NULL,
		format          TEXT NOT NULL,
		signature       TEXT,
		data            TEXT NOT NULL,
		source_url      TEXT,
		source_code_url TEXT,
		aliases         TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_functions_provider ON functions(provider_name);

	CREATE TABLE IF NOT EXISTS examples (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name TEXT NOT NULL,
		language      TEXT,
		data          TEXT NOT NULL,
		source_kind   TEXT,
		source_link   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_examples_provider ON examples(provider_name);

	CREATE TABLE IF NOT EXISTS guides (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name TEXT NOT NULL,
		link          TEXT NOT NULL,
		title         TEXT NOT NULL,
		format        TEXT NOT NULL,
		data          TEXT NOT NULL,
		UNIQUE(provider_name, link)
	);
	CREATE INDEX IF NOT EXISTS idx_guides_provider ON guides(provider_name);

	CREATE TABLE IF NOT EXISTS guide_xrefs (
		guide_id     INTEGER NOT NULL,
		sub_guide_id INTEGER NOT NULL,
		PRIMARY KEY (guide_id, sub_guide_id)
	);

	CREATE TABLE IF NOT EXISTS options (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name  TEXT NOT NULL,
		name           TEXT NOT NULL,
		type_signature TEXT,
		default_value  TEXT,
		data           TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_options_provider ON options(provider_name);

	CREATE TABLE IF NOT EXISTS packages (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name   TEXT NOT NULL,
		name            TEXT NOT NULL,
		version         TEXT,
		format          TEXT NOT NULL,
		data            TEXT NOT NULL,
		description     TEXT,
		homepage        TEXT,
		license         TEXT,
		source_code_url TEXT,
		broken          INTEGER NOT NULL DEFAULT 0,
		unfree          INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_packages_provider ON packages(provider_name);

	CREATE TABLE IF NOT EXISTS types (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_name TEXT NOT NULL,
		name          TEXT NOT NULL,
		data          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_types_provider ON types(provider_name);

	CREATE TABLE IF NOT EXISTS function_examples (
		function_id     INTEGER NOT NULL,
		example_id      INTEGER NOT NULL,
		placeholder_key TEXT NOT NULL,
		PRIMARY KEY (function_id, example_id)
	);
	CREATE TABLE IF NOT EXISTS guide_examples (
		guide_id        INTEGER NOT NULL,
		example_id      INTEGER NOT NULL,
		placeholder_key TEXT NOT NULL,
		PRIMARY KEY (guide_id, example_id)
	);
	CREATE TABLE IF NOT EXISTS option_examples (
		option_id       INTEGER NOT NULL,
		example_id      INTEGER NOT NULL,
		placeholder_key TEXT NOT NULL,
		PRIMARY KEY (option_id, example_id)
	);
	CREATE TABLE IF NOT EXISTS package_examples (
		package_id      INTEGER NOT NULL,
		example_id      INTEGER NOT NULL,
		placeholder_key TEXT NOT NULL,
		PRIMARY KEY (package_id, example_id)
	);
	CREATE TABLE IF NOT EXISTS type_examples (
		type_id         INTEGER NOT NULL,
		example_id      INTEGER NOT NULL,
		placeholder_key TEXT NOT NULL,
		PRIMARY KEY (type_id, example_id)
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS search USING fts5(
		entity_id UNINDEXED,
		kind UNINDEXED,
		provider_name UNINDEXED,
		title,
		content,
		tokenize='ascii'
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close checkpoints the write-ahead log and releases the connection.
func (s *Store) Close() error {
	s.cancel()
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// WatchFile watches path for writes and invokes callback on each one. Used
// to hot-reload the meta-provider template configuration without requiring
// a process restart.
func (s *Store) WatchFile(path string, callback func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-s.ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					callback()
				}
			case <-watcher.Errors:
			}
		}
	}()

	return watcher.Add(path)
}
