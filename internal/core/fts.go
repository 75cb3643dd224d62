package core

import (
	"context"
	"fmt"
	"strings"
)

// Reindex rebuilds the search virtual table from scratch: delete every row,
// then one INSERT...SELECT per kind, inside a single transaction so readers
// never observe a partially rebuilt index.
func (s *Store) Reindex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reindex: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM search`); err != nil {
		return fmt.Errorf("reindex: clear: %w", err)
	}

	stmts := []string{
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Function', provider_name, name, '' FROM functions`,
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Example', provider_name, '', data FROM examples`,
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Guide', provider_name, title, '' FROM guides`,
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Option', provider_name, name, '' FROM options`,
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Package', provider_name, name, name FROM packages`,
		`INSERT INTO search (entity_id, kind, provider_name, title, content)
		 SELECT id, 'Type', provider_name, name, data FROM types`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
	}

	return tx.Commit()
}

// SearchHit is one row returned by the full-text MATCH query: enough to key
// a fetch from the kind-appropriate content table.
type SearchHit struct {
	EntityID     int64
	Kind         string
	ProviderName string
}

// Search runs the FTS5 MATCH query built by the query engine: ftsExpr is
// already escaped and quoted (or "*"); kinds and providers are optional IN
// filters, ANDed together, ordered by the engine's built-in rank.
func (s *Store) Search(ctx context.Context, ftsExpr string, kinds, providers []string) ([]SearchHit, error) {
	var sb strings.Builder
	args := []interface{}{ftsExpr}
	sb.WriteString(`SELECT entity_id, kind, provider_name FROM search WHERE search MATCH ?`)

	if len(kinds) > 0 {
		sb.WriteString(" AND kind IN (")
		for i, k := range kinds {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, k)
		}
		sb.WriteString(")")
	}

	if len(providers) > 0 {
		sb.WriteString(" AND provider_name IN (")
		for i, p := range providers {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, p)
		}
		sb.WriteString(")")
	}

	sb.WriteString(" ORDER BY rank")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.EntityID, &h.Kind, &h.ProviderName); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// EscapeFTSTerm doubles embedded double-quotes so a user search term can be
// safely wrapped in a quoted FTS5 string literal.
func EscapeFTSTerm(term string) string {
	return strings.ReplaceAll(term, `"`, `""`)
}
