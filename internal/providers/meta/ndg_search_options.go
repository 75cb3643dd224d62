package meta

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
)

// ndgSearchOptionsEntry mirrors one row of ndg's search-index JSON export
// (id/title/content/path plus the tokenized fields ndg's own search widget
// consumes, which NGL ignores since its own full-text index re-derives
// tokens from title/content).
type ndgSearchOptionsEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Path        string   `json:"path"`
	Tokens      []string `json:"tokens"`
	TitleTokens []string `json:"title_tokens"`
}

// ndgSearchOptionsProvider emits Option rows from ndg's machine-readable
// search index. original_source's ndg_search_options.rs parses this same
// document but never actually sinks the parsed entries (it is a debug
// stub printing the first three); NGL completes the provider so the
// template behaves like the other three.
type ndgSearchOptionsProvider struct {
	info   providers.Information
	source string
	fetch  sourceFetcher
}

func newNdgSearchOptionsProvider(cfg TemplateProviderConfig) providers.Provider {
	return &ndgSearchOptionsProvider{info: cfg.toInformation(optionOnly), source: cfg.Source, fetch: newSourceFetcher()}
}

func (p *ndgSearchOptionsProvider) Info() providers.Information {
	return p.info
}

func (p *ndgSearchOptionsProvider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	if len(providers.Intersects(requested, p.Info().Kinds)) == 0 {
		return nil
	}

	raw, err := p.fetch(ctx, p.source)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.source, err)
	}

	var entries []ndgSearchOptionsEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse ndg search options json: %w", err)
	}

	for _, e := range entries {
		row := core.OptionRow{
			ProviderName: p.info.Name,
			Name:         e.Title,
			Data:         e.Content,
		}
		if err := ch.Send(ctx, events.OptionEvent{Row: row}); err != nil {
			return err
		}
	}
	return nil
}
