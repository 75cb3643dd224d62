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
	"github.com/anthropics/ngl/internal/stitch"
)

// htmlExtractor is the shared Example Extractor (§4.C) every HTML-backed
// meta provider runs its fetched content through, rather than hand-rolling
// per-template fence detection.
var htmlExtractor = stitch.NewHTMLExtractor()

func ndgOptionsPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("h3", "p", "code", "pre", "a")
	return policy
}

// ndgOptionsHTMLProvider emits Option (and optionally Example) rows from an
// ndg-rendered options page, where each option is introduced by an <h3>
// heading and described by the sibling elements up to the next one.
// Grounded on original_source's ndg_options_html.rs.
type ndgOptionsHTMLProvider struct {
	name   string
	source string
	kinds  map[ngldata.Kind]bool
	fetch  sourceFetcher
	policy *bluemonday.Policy
}

var ndgOptionsHTMLAllowed = map[ngldata.Kind]bool{ngldata.KindOption: true, ngldata.KindExample: true}

func newNdgOptionsHTMLProvider(cfg TemplateProviderConfig) providers.Provider {
	info := cfg.toInformation(ndgOptionsHTMLAllowed)
	kinds := make(map[ngldata.Kind]bool, len(info.Kinds))
	for _, k := range info.Kinds {
		kinds[k] = true
	}
	return &ndgOptionsHTMLProvider{
		name:   cfg.Name,
		source: cfg.Source,
		kinds:  kinds,
		fetch:  newSourceFetcher(),
		policy: ndgOptionsPolicy(),
	}
}

func (p *ndgOptionsHTMLProvider) Info() providers.Information {
	kinds := make([]ngldata.Kind, 0, len(p.kinds))
	for k := range p.kinds {
		kinds = append(kinds, k)
	}
	return providers.Information{
		Name:              p.name,
		SourceURL:         p.source,
		Kinds:             kinds,
		SyncIntervalHours: 24,
	}
}

func (p *ndgOptionsHTMLProvider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	want := providers.Intersects(requested, p.Info().Kinds)
	if len(want) == 0 {
		return nil
	}
	emitOptions, emitExamples := false, false
	for _, k := range want {
		switch k {
		case ngldata.KindOption:
			emitOptions = true
		case ngldata.KindExample:
			emitExamples = true
		}
	}
	if !emitOptions && !emitExamples {
		return nil
	}

	raw, err := p.fetch(ctx, p.source)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.source, err)
	}

	opts, err := parseNdgOptionsHTML(p.policy.Sanitize(string(raw)))
	if err != nil {
		return fmt.Errorf("parse ndg options html: %w", err)
	}

	counter := 0
	for _, opt := range opts {
		if !emitOptions {
			continue
		}

		data := opt.rawHTML
		var attachments []events.ExampleAttachment
		if emitExamples {
			rewritten, extracted := extractHTMLExamples(data, &counter)
			data = rewritten
			for _, ex := range extracted {
				lang := ngldata.LanguageNix
				attachments = append(attachments, events.ExampleAttachment{
					PlaceholderKey: ex.placeholderKey,
					Row: core.ExampleRow{
						ProviderName: p.name,
						Language:     nullString(string(lang)),
						Data:         ex.data,
						SourceKind:   nullString(string(ngldata.KindOption)),
					},
				})
			}
		}

		row := core.OptionRow{
			ProviderName:  p.name,
			Name:          opt.name,
			TypeSignature: nullString(opt.typeSig),
			DefaultValue:  nullString(opt.defaultValue),
			Data:          data,
		}

		if len(attachments) == 0 {
			if err := ch.Send(ctx, events.OptionEvent{Row: row}); err != nil {
				return err
			}
			continue
		}
		if err := ch.Send(ctx, events.OptionWithExamplesEvent{Row: row, Examples: attachments}); err != nil {
			return err
		}
	}
	return nil
}

type ndgOption struct {
	name, typeSig, defaultValue, rawHTML string
}

// parseNdgOptionsHTML groups every <h3> heading whose text contains a dot
// (an option name like "services.foo.enable") with its following siblings
// up to the next <h3>, reading Type:/Default: paragraphs out of that span
// the way ndg's generated option pages lay them out. Each sibling is kept
// whole (its own tag included) in rawHTML, so <pre><code> blocks stay
// recognizable to the HTML example extractor.
func parseNdgOptionsHTML(sanitized string) ([]ndgOption, error) {
	doc, err := parseHTML(sanitized)
	if err != nil {
		return nil, err
	}

	var out []ndgOption
	for _, h3 := range findAll(doc, "h3") {
		name := strings.TrimSpace(strings.ReplaceAll(textContent(h3), "Link copied!", ""))
		if name == "" || !strings.Contains(name, ".") {
			continue
		}

		opt := ndgOption{name: name}
		var rawParts []string
		rawParts = append(rawParts, "<h3>"+name+"</h3>")

		for _, sib := range collectUntilNextSibling(h3, "h3") {
			var sibHTML strings.Builder
			html.Render(&sibHTML, sib)
			rawParts = append(rawParts, sibHTML.String())
			text := strings.TrimSpace(textContent(sib))
			switch {
			case strings.HasPrefix(text, "Type:"):
				opt.typeSig = strings.TrimSpace(strings.TrimPrefix(text, "Type:"))
			case strings.HasPrefix(text, "Default:"):
				opt.defaultValue = strings.TrimSpace(strings.TrimPrefix(text, "Default:"))
			}
		}
		opt.rawHTML = strings.Join(rawParts, "\n")
		out = append(out, opt)
	}
	return out, nil
}

type htmlExtractedExample struct {
	placeholderKey, data string
}

// extractHTMLExamples is a thin adapter over the shared Example Extractor
// (internal/stitch) so ndg_options_html reuses the same <pre><code>
// detection every other HTML-backed host uses, instead of hand-rolling its
// own fence scanner.
func extractHTMLExamples(content string, counter *int) (string, []htmlExtractedExample) {
	rewritten, extracted := htmlExtractor.Extract(content, counter)
	out := make([]htmlExtractedExample, 0, len(extracted))
	for _, ex := range extracted {
		out = append(out, htmlExtractedExample{placeholderKey: ex.PlaceholderKey, data: ex.Data})
	}
	return rewritten, out
}
