// Package search implements the query engine: it turns a caller's request
// into a full-text search expression, assembles typed results from the
// entity store, and groups them by provider.
package search

import (
	"context"
	"fmt"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/stitch"
)

// Query runs req against store and returns results grouped by provider.
func Query(ctx context.Context, store *core.Store, req ngldata.Request) ([]ngldata.ProviderMatches, error) {
	kinds := effectiveKinds(req.Kinds)

	hasHost := false
	for _, k := range kinds {
		if ngldata.IsHostKind(k) {
			hasHost = true
			break
		}
	}
	includesExample := false
	for _, k := range kinds {
		if k == ngldata.KindExample {
			includesExample = true
			break
		}
	}
	examplesStitched := includesExample && hasHost
	includeExamples := includesExample || len(req.Kinds) == 0

	ftsExpr := "*"
	if req.SearchTerm != nil && *req.SearchTerm != "" {
		ftsExpr = fmt.Sprintf(`"%s"*`, core.EscapeFTSTerm(*req.SearchTerm))
	}

	kindFilter := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if k == ngldata.KindExample && examplesStitched {
			// Stitched examples are embedded in their host's content, not
			// surfaced again as standalone top-level hits.
			continue
		}
		kindFilter = append(kindFilter, string(k))
	}

	hits, err := store.Search(ctx, ftsExpr, kindFilter, req.Providers)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	grouped := make(map[string][]ngldata.NGLData)
	var order []string
	for _, h := range hits {
		data, err := assemble(ctx, store, h, includeExamples)
		if err != nil {
			return nil, fmt.Errorf("assemble %s %d: %w", h.Kind, h.EntityID, err)
		}
		if _, seen := grouped[h.ProviderName]; !seen {
			order = append(order, h.ProviderName)
		}
		grouped[h.ProviderName] = append(grouped[h.ProviderName], data)
	}

	out := make([]ngldata.ProviderMatches, 0, len(order))
	for _, p := range order {
		out = append(out, ngldata.ProviderMatches{ProviderName: p, Matches: grouped[p]})
	}
	return out, nil
}

// effectiveKinds defaults to every non-Example kind when the caller names
// none, and otherwise passes the request through unchanged.
func effectiveKinds(requested []ngldata.Kind) []ngldata.Kind {
	if len(requested) > 0 {
		return requested
	}
	out := make([]ngldata.Kind, 0, len(ngldata.AllKinds))
	for _, k := range ngldata.AllKinds {
		if k != ngldata.KindExample {
			out = append(out, k)
		}
	}
	return out
}

func assemble(ctx context.Context, store *core.Store, h core.SearchHit, includeExamples bool) (ngldata.NGLData, error) {
	switch ngldata.Kind(h.Kind) {
	case ngldata.KindFunction:
		return assembleFunction(ctx, store, h.EntityID, includeExamples)
	case ngldata.KindOption:
		return assembleOption(ctx, store, h.EntityID, includeExamples)
	case ngldata.KindPackage:
		return assemblePackage(ctx, store, h.EntityID, includeExamples)
	case ngldata.KindType:
		return assembleType(ctx, store, h.EntityID, includeExamples)
	case ngldata.KindGuide:
		return assembleGuide(ctx, store, h.EntityID, includeExamples)
	case ngldata.KindExample:
		return assembleExample(ctx, store, h.EntityID)
	default:
		return ngldata.NGLData{}, fmt.Errorf("unknown kind %q", h.Kind)
	}
}

// stitchOrStrip pairs a host's join rows with their examples' code and
// either stitches them into content, or strips residual placeholders when
// examples were not requested.
func stitchOrStrip(ctx context.Context, store *core.Store, joins []core.JoinRow, content string, includeExamples bool) (string, error) {
	if !includeExamples {
		return stitch.Strip(content), nil
	}
	if len(joins) == 0 {
		return content, nil
	}
	pairs := make([]stitch.Pair, 0, len(joins))
	for _, j := range joins {
		ex, err := store.FetchExample(ctx, j.ExampleID)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, stitch.Pair{PlaceholderKey: j.PlaceholderKey, Code: ex.Data})
	}
	return stitch.Stitch(content, pairs), nil
}

func assembleFunction(ctx context.Context, store *core.Store, id int64, includeExamples bool) (ngldata.NGLData, error) {
	row, err := store.FetchFunction(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	joins, err := store.FunctionExamples(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	text, err := stitchOrStrip(ctx, store, joins, row.Data, includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.FunctionData{
		Name:          row.Name,
		Signature:     strPtr(row.Signature),
		Content:       ngldata.RawContent{Format: ngldata.Format(row.Format), Text: text},
		SourceURL:     strPtr(row.SourceURL),
		SourceCodeURL: strPtr(row.SourceCodeURL),
		Aliases:       parseAliases(row.Aliases),
	}
	return ngldata.NGLData{Kind: ngldata.KindFunction, Data: data}, nil
}

func assembleOption(ctx context.Context, store *core.Store, id int64, includeExamples bool) (ngldata.NGLData, error) {
	row, err := store.FetchOption(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	joins, err := store.OptionExamples(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	text, err := stitchOrStrip(ctx, store, joins, row.Data, includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.OptionData{
		Name:          row.Name,
		TypeSignature: strPtr(row.TypeSignature),
		DefaultValue:  strPtr(row.DefaultValue),
		Content:       ngldata.RawContent{Format: ngldata.FormatPlainText, Text: text},
	}
	return ngldata.NGLData{Kind: ngldata.KindOption, Data: data}, nil
}

func assemblePackage(ctx context.Context, store *core.Store, id int64, includeExamples bool) (ngldata.NGLData, error) {
	row, err := store.FetchPackage(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	joins, err := store.PackageExamples(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	text, err := stitchOrStrip(ctx, store, joins, row.Data, includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	// Package descriptions embed the same placeholder tokens data does and
	// follow the identical stitch-or-strip rule.
	description, err := stitchOrStrip(ctx, store, joins, nullOr(row.Description), includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.PackageData{
		Name:          row.Name,
		Version:       strPtr(row.Version),
		Content:       ngldata.RawContent{Format: ngldata.Format(row.Format), Text: text},
		Description:   optionalStr(description, row.Description.Valid),
		Homepage:      strPtr(row.Homepage),
		License:       strPtr(row.License),
		SourceCodeURL: strPtr(row.SourceCodeURL),
		Broken:        row.Broken,
		Unfree:        row.Unfree,
	}
	return ngldata.NGLData{Kind: ngldata.KindPackage, Data: data}, nil
}

func assembleType(ctx context.Context, store *core.Store, id int64, includeExamples bool) (ngldata.NGLData, error) {
	row, err := store.FetchType(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	joins, err := store.TypeExamples(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	text, err := stitchOrStrip(ctx, store, joins, row.Data, includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.TypeData{
		Name:    row.Name,
		Content: ngldata.RawContent{Format: ngldata.FormatPlainText, Text: text},
	}
	return ngldata.NGLData{Kind: ngldata.KindType, Data: data}, nil
}

func assembleGuide(ctx context.Context, store *core.Store, id int64, includeExamples bool) (ngldata.NGLData, error) {
	row, err := store.FetchGuide(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	joins, err := store.GuideExamples(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	text, err := stitchOrStrip(ctx, store, joins, row.Data, includeExamples)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.GuideData{
		Link:    row.Link,
		Title:   row.Title,
		Content: ngldata.RawContent{Format: ngldata.Format(row.Format), Text: text},
	}
	return ngldata.NGLData{Kind: ngldata.KindGuide, Data: data}, nil
}

func assembleExample(ctx context.Context, store *core.Store, id int64) (ngldata.NGLData, error) {
	row, err := store.FetchExample(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}

	data := ngldata.ExampleData{Code: row.Data}
	if row.Language.Valid {
		lang := ngldata.Language(row.Language.String)
		data.Language = &lang
	}
	if row.SourceKind.Valid {
		k := ngldata.Kind(row.SourceKind.String)
		data.SourceKind = &k
	}

	ref, ok, err := store.ExampleSource(ctx, id)
	if err != nil {
		return ngldata.NGLData{}, err
	}
	if ok {
		data.Source = &ngldata.SourceRef{
			HostKind: ngldata.Kind(ref.HostKind),
			HostID:   ref.HostID,
			Link:     ref.Link,
		}
	}

	return ngldata.NGLData{Kind: ngldata.KindExample, Data: data}, nil
}
