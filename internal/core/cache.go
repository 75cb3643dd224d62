package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertProvider records this provider's last_updated timestamp, creating
// the row on first sync.
func (s *Store) UpsertProvider(ctx context.Context, name string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO providers (name, last_updated) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET last_updated = excluded.last_updated
	`, name, now.Unix())
	if err != nil {
		return fmt.Errorf("upsert provider: %w", err)
	}
	return nil
}

// CacheLastSynced returns the last_synced timestamp for (provider, kind),
// and whether a cache row exists at all.
func (s *Store) CacheLastSynced(ctx context.Context, provider, kind string) (time.Time, bool, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_synced FROM provider_kind_cache WHERE provider_name = ? AND kind = ?`,
		provider, kind).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cache last synced: %w", err)
	}
	return time.Unix(ts, 0).UTC(), true, nil
}

// SetCacheLastSynced upserts provider_kind_cache[(provider, kind)] = now.
func (s *Store) SetCacheLastSynced(ctx context.Context, provider, kind string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_kind_cache (provider_name, kind, last_synced) VALUES (?, ?, ?)
		ON CONFLICT(provider_name, kind) DO UPDATE SET last_synced = excluded.last_synced
	`, provider, kind, now.Unix())
	if err != nil {
		return fmt.Errorf("set cache last synced: %w", err)
	}
	return nil
}
