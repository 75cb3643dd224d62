package meta

import (
	"context"
	"database/sql"

	"github.com/anthropics/ngl/internal/providers"
)

// sourceFetcher retrieves a template provider's configured "source", be it
// an HTTP(S) URL or a local filesystem path.
type sourceFetcher func(ctx context.Context, source string) ([]byte, error)

func newSourceFetcher() sourceFetcher {
	client := providers.NewHTTPClient()
	return func(ctx context.Context, source string) ([]byte, error) {
		return providers.FetchSourceOrFile(ctx, client, source)
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}
