package core

import (
	"context"
	"fmt"
)

// DeleteFunctions removes every function row owned by provider.
func (s *Store) DeleteFunctions(ctx context.Context, provider string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM functions WHERE provider_name = ?`, provider)
	if err != nil {
		return fmt.Errorf("delete functions: %w", err)
	}
	return nil
}

// DeleteOptions removes every option row owned by provider.
func (s *Store) DeleteOptions(ctx context.Context, provider string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM options WHERE provider_name = ?`, provider)
	if err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	return nil
}

// DeletePackages removes every package row owned by provider.
func (s *Store) DeletePackages(ctx context.Context, provider string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE provider_name = ?`, provider)
	if err != nil {
		return fmt.Errorf("delete packages: %w", err)
	}
	return nil
}

// DeleteTypes removes every type row owned by provider.
func (s *Store) DeleteTypes(ctx context.Context, provider string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM types WHERE provider_name = ?`, provider)
	if err != nil {
		return fmt.Errorf("delete types: %w", err)
	}
	return nil
}

// DeleteExamplesCascade removes, in order, every join row referencing one of
// this provider's hosts across all five host kinds, then the provider's own
// example rows. This is the invalidation performed when Example is in the
// to-sync set.
func (s *Store) DeleteExamplesCascade(ctx context.Context, provider string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete examples cascade: begin: %w", err)
	}
	defer tx.Rollback()

	joinDeletes := []string{
		`DELETE FROM function_examples WHERE example_id IN (SELECT id FROM examples WHERE provider_name = ?)`,
		`DELETE FROM guide_examples WHERE example_id IN (SELECT id FROM examples WHERE provider_name = ?)`,
		`DELETE FROM option_examples WHERE example_id IN (SELECT id FROM examples WHERE provider_name = ?)`,
		`DELETE FROM package_examples WHERE example_id IN (SELECT id FROM examples WHERE provider_name = ?)`,
		`DELETE FROM type_examples WHERE example_id IN (SELECT id FROM examples WHERE provider_name = ?)`,
	}
	for _, stmt := range joinDeletes {
		if _, err := tx.ExecContext(ctx, stmt, provider); err != nil {
			return fmt.Errorf("delete examples cascade: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM examples WHERE provider_name = ?`, provider); err != nil {
		return fmt.Errorf("delete examples cascade: %w", err)
	}

	return tx.Commit()
}

// DeleteGuidesCascade removes guide_xref edges touching this provider's
// guides, the guide_examples join rows, then the guide rows themselves.
func (s *Store) DeleteGuidesCascade(ctx context.Context, provider string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete guides cascade: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM guide_xrefs WHERE guide_id IN (SELECT id FROM guides WHERE provider_name = ?)
		   OR sub_guide_id IN (SELECT id FROM guides WHERE provider_name = ?)
	`, provider, provider); err != nil {
		return fmt.Errorf("delete guides cascade: xrefs: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM guide_examples WHERE guide_id IN (SELECT id FROM guides WHERE provider_name = ?)
	`, provider); err != nil {
		return fmt.Errorf("delete guides cascade: joins: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM guides WHERE provider_name = ?`, provider); err != nil {
		return fmt.Errorf("delete guides cascade: guides: %w", err)
	}

	return tx.Commit()
}
