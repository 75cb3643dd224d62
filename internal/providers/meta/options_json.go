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

// optionsJSONEntry mirrors the shape nixos.org's options.json (and
// nixos-render-docs' machine-readable export) emits for one option; Default
// and Example carry either {"text": "..."} or an arbitrary JSON value,
// grounded on original_source's OptionValue untagged enum.
type optionsJSONEntry struct {
	Type         *string         `json:"type"`
	Description  *string         `json:"description"`
	Default      json.RawMessage `json:"default"`
	Example      json.RawMessage `json:"example"`
	Declarations []interface{}   `json:"declarations"`
	ReadOnly     *bool           `json:"readOnly"`
}

func (e optionsJSONEntry) defaultText() string {
	return optionValueText(e.Default)
}

// optionValueText extracts the "text" field from a {"text": "..."} wrapper,
// or falls back to the raw JSON encoding for any other shape.
func optionValueText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var wrapped struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Text != nil {
		return *wrapped.Text
	}
	return string(raw)
}

// optionsJSONProvider emits Option rows from a flat {name: entry} JSON
// document, grounded on original_source's options_json.rs.
type optionsJSONProvider struct {
	info   providers.Information
	source string
	fetch  sourceFetcher
}

func newOptionsJSONProvider(cfg TemplateProviderConfig) providers.Provider {
	return &optionsJSONProvider{info: cfg.toInformation(optionOnly), source: cfg.Source, fetch: newSourceFetcher()}
}

func (p *optionsJSONProvider) Info() providers.Information {
	return p.info
}

func (p *optionsJSONProvider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	if len(providers.Intersects(requested, p.Info().Kinds)) == 0 {
		return nil
	}

	raw, err := p.fetch(ctx, p.source)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.source, err)
	}

	var entries map[string]optionsJSONEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse options.json: %w", err)
	}

	for name, opt := range entries {
		data, err := json.Marshal(opt)
		if err != nil {
			return fmt.Errorf("re-marshal option %q: %w", name, err)
		}

		row := core.OptionRow{
			ProviderName:  p.info.Name,
			Name:          name,
			TypeSignature: nullStringPtr(opt.Type),
			DefaultValue:  nullString(opt.defaultText()),
			Data:          string(data),
		}
		if err := ch.Send(ctx, events.OptionEvent{Row: row}); err != nil {
			return err
		}
	}
	return nil
}
