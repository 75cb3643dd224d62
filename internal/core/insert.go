package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// InsertFunctions bulk-inserts function rows, chunked at maxBatchRows rows
// per statement. Used by the event consumer's flush-at-BatchSize path, where
// no generated id is needed because plain Function events carry no
// examples.
func (s *Store) InsertFunctions(ctx context.Context, rows []FunctionRow) error {
	for _, chunk := range chunkFunctions(rows) {
		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*8)
		sb.WriteString("INSERT INTO functions (provider_name, name, format, signature, data, source_url, source_code_url, aliases) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.ProviderName, r.Name, r.Format, r.Signature, r.Data, r.SourceURL, r.SourceCodeURL, r.Aliases)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert functions: %w", err)
		}
	}
	return nil
}

func chunkFunctions(rows []FunctionRow) [][]FunctionRow {
	var out [][]FunctionRow
	for len(rows) > maxBatchRows {
		out = append(out, rows[:maxBatchRows])
		rows = rows[maxBatchRows:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

// InsertFunction inserts one function row and returns its generated id, for
// the composite FunctionWithExamples path.
func (s *Store) InsertFunction(ctx context.Context, r FunctionRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO functions (provider_name, name, format, signature, data, source_url, source_code_url, aliases) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProviderName, r.Name, r.Format, r.Signature, r.Data, r.SourceURL, r.SourceCodeURL, r.Aliases)
	if err != nil {
		return 0, fmt.Errorf("insert function: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertExamples(ctx context.Context, rows []ExampleRow) error {
	for len(rows) > 0 {
		n := maxBatchRows
		if n > len(rows) {
			n = len(rows)
		}
		chunk := rows[:n]
		rows = rows[n:]

		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*5)
		sb.WriteString("INSERT INTO examples (provider_name, language, data, source_kind, source_link) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, r.ProviderName, r.Language, r.Data, r.SourceKind, r.SourceLink)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert examples: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertExample(ctx context.Context, r ExampleRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO examples (provider_name, language, data, source_kind, source_link) VALUES (?, ?, ?, ?, ?)`,
		r.ProviderName, r.Language, r.Data, r.SourceKind, r.SourceLink)
	if err != nil {
		return 0, fmt.Errorf("insert example: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertGuides(ctx context.Context, rows []GuideRow) error {
	for len(rows) > 0 {
		n := maxBatchRows
		if n > len(rows) {
			n = len(rows)
		}
		chunk := rows[:n]
		rows = rows[n:]

		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*5)
		sb.WriteString("INSERT INTO guides (provider_name, link, title, format, data) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, r.ProviderName, r.Link, r.Title, r.Format, r.Data)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert guides: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertGuide(ctx context.Context, r GuideRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO guides (provider_name, link, title, format, data) VALUES (?, ?, ?, ?, ?)`,
		r.ProviderName, r.Link, r.Title, r.Format, r.Data)
	if err != nil {
		return 0, fmt.Errorf("insert guide: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertOptions(ctx context.Context, rows []OptionRow) error {
	for len(rows) > 0 {
		n := maxBatchRows
		if n > len(rows) {
			n = len(rows)
		}
		chunk := rows[:n]
		rows = rows[n:]

		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*5)
		sb.WriteString("INSERT INTO options (provider_name, name, type_signature, default_value, data) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, r.ProviderName, r.Name, r.TypeSignature, r.DefaultValue, r.Data)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert options: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertOption(ctx context.Context, r OptionRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO options (provider_name, name, type_signature, default_value, data) VALUES (?, ?, ?, ?, ?)`,
		r.ProviderName, r.Name, r.TypeSignature, r.DefaultValue, r.Data)
	if err != nil {
		return 0, fmt.Errorf("insert option: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertPackages(ctx context.Context, rows []PackageRow) error {
	for len(rows) > 0 {
		n := maxBatchRows
		if n > len(rows) {
			n = len(rows)
		}
		chunk := rows[:n]
		rows = rows[n:]

		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*11)
		sb.WriteString("INSERT INTO packages (provider_name, name, version, format, data, description, homepage, license, source_code_url, broken, unfree) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.ProviderName, r.Name, r.Version, r.Format, r.Data, r.Description, r.Homepage, r.License, r.SourceCodeURL, r.Broken, r.Unfree)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert packages: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertPackage(ctx context.Context, r PackageRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO packages (provider_name, name, version, format, data, description, homepage, license, source_code_url, broken, unfree) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProviderName, r.Name, r.Version, r.Format, r.Data, r.Description, r.Homepage, r.License, r.SourceCodeURL, r.Broken, r.Unfree)
	if err != nil {
		return 0, fmt.Errorf("insert package: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertTypes(ctx context.Context, rows []TypeRow) error {
	for len(rows) > 0 {
		n := maxBatchRows
		if n > len(rows) {
			n = len(rows)
		}
		chunk := rows[:n]
		rows = rows[n:]

		var sb strings.Builder
		args := make([]interface{}, 0, len(chunk)*3)
		sb.WriteString("INSERT INTO types (provider_name, name, data) VALUES ")
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?)")
			args = append(args, r.ProviderName, r.Name, r.Data)
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert types: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertType(ctx context.Context, r TypeRow) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO types (provider_name, name, data) VALUES (?, ?, ?)`,
		r.ProviderName, r.Name, r.Data)
	if err != nil {
		return 0, fmt.Errorf("insert type: %w", err)
	}
	return res.LastInsertId()
}

// Join-table inserts, one per host kind, each carrying the placeholder
// token the example's code replaced in the host's stored data.

func (s *Store) InsertFunctionExample(ctx context.Context, functionID, exampleID int64, placeholderKey string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO function_examples (function_id, example_id, placeholder_key) VALUES (?, ?, ?)`, functionID, exampleID, placeholderKey)
	return err
}

func (s *Store) InsertGuideExample(ctx context.Context, guideID, exampleID int64, placeholderKey string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guide_examples (guide_id, example_id, placeholder_key) VALUES (?, ?, ?)`, guideID, exampleID, placeholderKey)
	return err
}

func (s *Store) InsertOptionExample(ctx context.Context, optionID, exampleID int64, placeholderKey string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO option_examples (option_id, example_id, placeholder_key) VALUES (?, ?, ?)`, optionID, exampleID, placeholderKey)
	return err
}

func (s *Store) InsertPackageExample(ctx context.Context, packageID, exampleID int64, placeholderKey string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO package_examples (package_id, example_id, placeholder_key) VALUES (?, ?, ?)`, packageID, exampleID, placeholderKey)
	return err
}

func (s *Store) InsertTypeExample(ctx context.Context, typeID, exampleID int64, placeholderKey string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO type_examples (type_id, example_id, placeholder_key) VALUES (?, ?, ?)`, typeID, exampleID, placeholderKey)
	return err
}

// LookupGuideIDByLink resolves a guide's generated id from its provider and
// stable link, for deferred GuideXref resolution.
func (s *Store) LookupGuideIDByLink(ctx context.Context, providerName, link string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM guides WHERE provider_name = ? AND link = ?`, providerName, link).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup guide by link: %w", err)
	}
	return id, true, nil
}

// InsertGuideXref records a resolved parent/child guide edge; duplicates
// (already-inserted edges within the same cycle) are silently ignored.
func (s *Store) InsertGuideXref(ctx context.Context, guideID, subGuideID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO guide_xrefs (guide_id, sub_guide_id) VALUES (?, ?)`, guideID, subGuideID)
	return err
}
