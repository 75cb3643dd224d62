package meta

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
)

// renderDocsPolicy sanitizes the DocBook-derived HTML the renderdocs
// template fetches before it is ever parsed, so a compromised upstream page
// can't smuggle a script tag into stored option data.
func renderDocsPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("dl", "dt", "dd", "span", "code", "pre", "p")
	return policy
}

// renderDocsProvider emits NixOS-manual-style option documentation scraped
// from a DocBook-generated <dl class="variablelist"> table, grounded on
// original_source's renderdocs.rs scraper-based parser.
type renderDocsProvider struct {
	info   providers.Information
	source string
	fetch  sourceFetcher
	policy *bluemonday.Policy
}

func newRenderDocsProvider(cfg TemplateProviderConfig) providers.Provider {
	return &renderDocsProvider{
		info:   cfg.toInformation(optionOnly),
		source: cfg.Source,
		fetch:  newSourceFetcher(),
		policy: renderDocsPolicy(),
	}
}

func (p *renderDocsProvider) Info() providers.Information {
	return p.info
}

func (p *renderDocsProvider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	if len(providers.Intersects(requested, p.Info().Kinds)) == 0 {
		return nil
	}

	raw, err := p.fetch(ctx, p.source)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.source, err)
	}

	options, err := parseRenderDocsHTML(p.policy.Sanitize(string(raw)))
	if err != nil {
		return fmt.Errorf("parse renderdocs html: %w", err)
	}

	for _, opt := range options {
		if err := ch.Send(ctx, events.OptionEvent{Row: core.OptionRow{
			ProviderName:  p.info.Name,
			Name:          opt.name,
			TypeSignature: nullString(opt.typeSig),
			DefaultValue:  nullString(opt.defaultValue),
			Data:          opt.rawHTML,
		}}); err != nil {
			return err
		}
	}
	return nil
}

type renderDocsOption struct {
	name, typeSig, defaultValue, rawHTML string
}

// parseRenderDocsHTML walks the sanitized HTML's <dl class="variablelist">,
// pairing each <dt>/<dd> into one option entry: the term names the option,
// the definition holds its type/default/example properties as a sequence
// of <p><span class="emphasis">Label:</span> value</p> blocks.
func parseRenderDocsHTML(sanitized string) ([]renderDocsOption, error) {
	doc, err := parseHTML(sanitized)
	if err != nil {
		return nil, err
	}

	dl, ok := findFirstWithClass(doc, "dl", "variablelist")
	if !ok {
		return nil, fmt.Errorf("no dl.variablelist found in html")
	}

	dts := findAll(dl, "dt")
	dds := findAll(dl, "dd")
	if len(dts) != len(dds) {
		return nil, fmt.Errorf("mismatched dt/dd counts: %d dt vs %d dd", len(dts), len(dds))
	}

	var out []renderDocsOption
	for i, dt := range dts {
		name := optionNameFromTerm(dt)
		if name == "" {
			continue
		}

		dd := dds[i]
		opt := renderDocsOption{name: name, rawHTML: innerHTML(dd)}
		for _, p := range findAll(dd, "p") {
			if _, ok := findFirstWithClass(p, "span", "emphasis"); !ok {
				continue
			}
			assignRenderDocsProperty(&opt, strings.TrimSpace(textContent(p)))
		}
		out = append(out, opt)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no options found in html")
	}
	return out, nil
}

// optionNameFromTerm prefers <span class="term"><code class="option"> for
// the option name, falling back to the term span's own text.
func optionNameFromTerm(dt *html.Node) string {
	term, ok := findFirstWithClass(dt, "span", "term")
	if !ok {
		return strings.TrimSpace(textContent(dt))
	}
	if code, ok := findFirstWithClass(term, "code", "option"); ok {
		return strings.TrimSpace(textContent(code))
	}
	return strings.TrimSpace(textContent(term))
}

// assignRenderDocsProperty fills in opt.typeSig/defaultValue from a
// "Type: <value>" or "Default: <value>" paragraph; anything else (the
// Example/Declared-by paragraphs) is left in rawHTML untouched.
func assignRenderDocsProperty(opt *renderDocsOption, text string) {
	switch {
	case strings.HasPrefix(text, "Type:"):
		opt.typeSig = normalizeRenderDocsValue(strings.TrimPrefix(text, "Type:"))
	case strings.HasPrefix(text, "Default:"):
		opt.defaultValue = normalizeRenderDocsValue(strings.TrimPrefix(text, "Default:"))
	}
}

func normalizeRenderDocsValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 && strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") {
		s = s[1 : len(s)-1]
	}
	return s
}
