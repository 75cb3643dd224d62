package core

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) FetchFunction(ctx context.Context, id int64) (FunctionRow, error) {
	var r FunctionRow
	r.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, name, format, signature, data, source_url, source_code_url, aliases
		FROM functions WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Name, &r.Format, &r.Signature, &r.Data, &r.SourceURL, &r.SourceCodeURL, &r.Aliases)
	if err != nil {
		return r, fmt.Errorf("fetch function %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) FetchExample(ctx context.Context, id int64) (ExampleRow, error) {
	var r ExampleRow
	r.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, language, data, source_kind, source_link
		FROM examples WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Language, &r.Data, &r.SourceKind, &r.SourceLink)
	if err != nil {
		return r, fmt.Errorf("fetch example %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) FetchGuide(ctx context.Context, id int64) (GuideRow, error) {
	var r GuideRow
	r.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, link, title, format, data
		FROM guides WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Link, &r.Title, &r.Format, &r.Data)
	if err != nil {
		return r, fmt.Errorf("fetch guide %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) FetchOption(ctx context.Context, id int64) (OptionRow, error) {
	var r OptionRow
	r.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, name, type_signature, default_value, data
		FROM options WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Name, &r.TypeSignature, &r.DefaultValue, &r.Data)
	if err != nil {
		return r, fmt.Errorf("fetch option %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) FetchPackage(ctx context.Context, id int64) (PackageRow, error) {
	var r PackageRow
	r.ID = id
	var broken, unfree int
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, name, version, format, data, description, homepage, license, source_code_url, broken, unfree
		FROM packages WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Name, &r.Version, &r.Format, &r.Data, &r.Description, &r.Homepage, &r.License, &r.SourceCodeURL, &broken, &unfree)
	if err != nil {
		return r, fmt.Errorf("fetch package %d: %w", id, err)
	}
	r.Broken = broken != 0
	r.Unfree = unfree != 0
	return r, nil
}

func (s *Store) FetchType(ctx context.Context, id int64) (TypeRow, error) {
	var r TypeRow
	r.ID = id
	err := s.db.QueryRowContext(ctx, `
		SELECT provider_name, name, data
		FROM types WHERE id = ?`, id,
	).Scan(&r.ProviderName, &r.Name, &r.Data)
	if err != nil {
		return r, fmt.Errorf("fetch type %d: %w", id, err)
	}
	return r, nil
}

// joinQuery issues the shared shape of every host->example left-join used
// to gather stitching pairs for one host row.
func (s *Store) joinQuery(ctx context.Context, table, hostColumn string, hostID int64) ([]JoinRow, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT j.example_id, j.placeholder_key
		FROM %s j
		WHERE j.%s = ?`, table, hostColumn), hostID)
	if err != nil {
		return nil, fmt.Errorf("join query %s: %w", table, err)
	}
	defer rows.Close()

	var out []JoinRow
	for rows.Next() {
		var j JoinRow
		if err := rows.Scan(&j.ExampleID, &j.PlaceholderKey); err != nil {
			return nil, fmt.Errorf("join query %s: scan: %w", table, err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) FunctionExamples(ctx context.Context, functionID int64) ([]JoinRow, error) {
	return s.joinQuery(ctx, "function_examples", "function_id", functionID)
}

func (s *Store) GuideExamples(ctx context.Context, guideID int64) ([]JoinRow, error) {
	return s.joinQuery(ctx, "guide_examples", "guide_id", guideID)
}

func (s *Store) OptionExamples(ctx context.Context, optionID int64) ([]JoinRow, error) {
	return s.joinQuery(ctx, "option_examples", "option_id", optionID)
}

func (s *Store) PackageExamples(ctx context.Context, packageID int64) ([]JoinRow, error) {
	return s.joinQuery(ctx, "package_examples", "package_id", packageID)
}

func (s *Store) TypeExamples(ctx context.Context, typeID int64) ([]JoinRow, error) {
	return s.joinQuery(ctx, "type_examples", "type_id", typeID)
}

// GuideParentLink returns the link of the guide this guide is a sub-guide
// of, if any cross-reference names it as a child.
func (s *Store) GuideParentLink(ctx context.Context, guideID int64) (string, bool, error) {
	var link string
	err := s.db.QueryRowContext(ctx, `
		SELECT g.link FROM guide_xrefs x JOIN guides g ON g.id = x.guide_id WHERE x.sub_guide_id = ?`, guideID,
	).Scan(&link)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("guide parent link: %w", err)
	}
	return link, true, nil
}

// GuideSubLinks returns the links of every sub-guide of guideID.
func (s *Store) GuideSubLinks(ctx context.Context, guideID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.link FROM guide_xrefs x JOIN guides g ON g.id = x.sub_guide_id WHERE x.guide_id = ?`, guideID)
	if err != nil {
		return nil, fmt.Errorf("guide sub links: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("guide sub links: scan: %w", err)
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// ExampleSource resolves the SourceRef for a standalone example: the first
// join row referencing it, checked in guide, function, option, package,
// type order. It returns ok=false if the example is unreferenced.
type ExampleSourceRef struct {
	HostKind string
	HostID   int64
	Link     string // guide's canonical link, or the example's own source_link otherwise
}

func (s *Store) ExampleSource(ctx context.Context, exampleID int64) (ExampleSourceRef, bool, error) {
	type probe struct {
		table, hostColumn, kind string
	}
	probes := []probe{
		{"guide_examples", "guide_id", "Guide"},
		{"function_examples", "function_id", "Function"},
		{"option_examples", "option_id", "Option"},
		{"package_examples", "package_id", "Package"},
		{"type_examples", "type_id", "Type"},
	}

	for _, p := range probes {
		var hostID int64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT %s FROM %s WHERE example_id = ? LIMIT 1`, p.hostColumn, p.table), exampleID,
		).Scan(&hostID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return ExampleSourceRef{}, false, fmt.Errorf("example source: %s: %w", p.table, err)
		}

		ref := ExampleSourceRef{HostKind: p.kind, HostID: hostID}
		if p.kind == "Guide" {
			guide, err := s.FetchGuide(ctx, hostID)
			if err != nil {
				return ExampleSourceRef{}, false, err
			}
			ref.Link = guide.Link
		} else {
			ex, err := s.FetchExample(ctx, exampleID)
			if err != nil {
				return ExampleSourceRef{}, false, err
			}
			if ex.SourceLink.Valid {
				ref.Link = ex.SourceLink.String
			}
		}
		return ref, true, nil
	}

	return ExampleSourceRef{}, false, nil
}
