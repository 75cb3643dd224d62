// Package meta builds providers from a JSON configuration file instead of
// compiling one in per source: each entry names a template, and a factory
// turns it into a live providers.Provider.
package meta

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
)

// TemplateProviderConfig is one entry in templates.json.
type TemplateProviderConfig struct {
	Template string   `json:"template"`
	Name     string   `json:"name"`
	Source   string   `json:"source"`
	Kinds    []string `json:"kinds"`
}

// Config is the full templates.json document shape.
type Config struct {
	TemplateProviders []TemplateProviderConfig `json:"template_providers"`
}

// LoadConfig reads and parses path. A missing file returns the os.ReadFile
// error unwrapped, so os.IsNotExist holds on it; since the meta-provider
// config is optional, callers check for that and treat it as no config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// toInformation converts a config entry into the declarative Information a
// Provider.Info() returns, parsing and filtering its kinds list. allowed, if
// non-nil, restricts which kinds this template supports; anything else (or
// anything ParseKind doesn't recognize) is dropped with a stderr warning.
func (c TemplateProviderConfig) toInformation(allowed map[ngldata.Kind]bool) providers.Information {
	kinds := make([]ngldata.Kind, 0, len(c.Kinds))
	for _, raw := range c.Kinds {
		k, ok := ngldata.ParseKind(raw)
		if !ok {
			fmt.Fprintf(os.Stderr, "ngl: unknown kind %q for provider %q, skipping\n", raw, c.Name)
			continue
		}
		if allowed != nil && !allowed[k] {
			fmt.Fprintf(os.Stderr, "ngl: kind %q not supported by template %q, skipping\n", raw, c.Template)
			continue
		}
		kinds = append(kinds, k)
	}
	return providers.Information{
		Name:              c.Name,
		SourceURL:         c.Source,
		Kinds:             kinds,
		SyncIntervalHours: 24,
	}
}

// BuildProviders instantiates every entry in cfg whose template is
// recognized, skipping (and warning on) any that aren't.
func BuildProviders(cfg Config) []providers.Provider {
	out := make([]providers.Provider, 0, len(cfg.TemplateProviders))
	for _, entry := range cfg.TemplateProviders {
		p := buildOne(entry)
		if p == nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func buildOne(cfg TemplateProviderConfig) providers.Provider {
	switch cfg.Template {
	case "renderdocs":
		return newRenderDocsProvider(cfg)
	case "options_json":
		return newOptionsJSONProvider(cfg)
	case "ndg_options_html":
		return newNdgOptionsHTMLProvider(cfg)
	case "ndg_search_options":
		return newNdgSearchOptionsProvider(cfg)
	default:
		fmt.Fprintf(os.Stderr, "ngl: unknown meta-provider template %q, skipping\n", cfg.Template)
		return nil
	}
}

var optionOnly = map[ngldata.Kind]bool{ngldata.KindOption: true}
