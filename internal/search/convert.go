package search

import (
	"database/sql"
	"encoding/json"
)

// strPtr converts a nullable column into the *string shape the NGLData DTOs
// use to represent "absent" without a zero-value string standing in.
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullOr returns the column's value or "" when it's NULL, for fields (like
// Package.description) that still need stitching even when absent.
func nullOr(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// optionalStr re-wraps a stitched string as *string, or nil if the source
// column was NULL to begin with.
func optionalStr(s string, valid bool) *string {
	if !valid {
		return nil
	}
	return &s
}

// parseAliases decodes a function's aliases column (a JSON array of
// strings) back into a slice, or nil if the column is NULL or malformed.
func parseAliases(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}
