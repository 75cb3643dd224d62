package core

import "database/sql"

// The Row types mirror the entity-store tables exactly (including SQL NULL
// handling via sql.Null*); they are the storage-facing counterpart to the
// ngldata DTOs the query engine hands back to callers.

type FunctionRow struct {
	ID            int64
	ProviderName  string
	Name          string
	Format        string
	Signature     sql.NullString
	Data          string
	SourceURL     sql.NullString
	SourceCodeURL sql.NullString
	Aliases       sql.NullString // JSON array, e.g. `["a","b"]`
}

type ExampleRow struct {
	ID           int64
	ProviderName string
	Language     sql.NullString
	Data         string
	SourceKind   sql.NullString
	SourceLink   sql.NullString
}

type GuideRow struct {
	ID           int64
	ProviderName string
	Link         string
	Title        string
	Format       string
	Data         string
}

type OptionRow struct {
	ID            int64
	ProviderName  string
	Name          string
	TypeSignature sql.NullString
	DefaultValue  sql.NullString
	Data          string
}

type PackageRow struct {
	ID            int64
	ProviderName  string
	Name          string
	Version       sql.NullString
	Format        string
	Data          string
	Description   sql.NullString
	Homepage      sql.NullString
	License       sql.NullString
	SourceCodeURL sql.NullString
	Broken        bool
	Unfree        bool
}

type TypeRow struct {
	ID           int64
	ProviderName string
	Name         string
	Data         string
}

// JoinRow is the shared shape of every *_examples table: the example's id
// and the placeholder token its code replaced in the host's data.
type JoinRow struct {
	ExampleID      int64
	PlaceholderKey string
}
