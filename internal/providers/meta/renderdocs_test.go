package meta

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/status"
)

const renderDocsFixture = `
<html><body>
<dl class="variablelist">
  <dt><span class="term"><code class="option">services.foo.enable</code></span></dt>
  <dd>
    <p><span class="emphasis">Type:</span> boolean</p>
    <p><span class="emphasis">Default:</span> <code>false</code></p>
    <p>Whether to enable foo.</p>
  </dd>
</dl>
</body></html>`

func TestParseRenderDocsHTML(t *testing.T) {
	opts, err := parseRenderDocsHTML(renderDocsFixture)
	if err != nil {
		t.Fatalf("parseRenderDocsHTML: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
	opt := opts[0]
	if opt.name != "services.foo.enable" {
		t.Errorf("name = %q", opt.name)
	}
	if opt.typeSig != "boolean" {
		t.Errorf("typeSig = %q", opt.typeSig)
	}
	if opt.defaultValue != "false" {
		t.Errorf("defaultValue = %q", opt.defaultValue)
	}
}

func TestParseRenderDocsHTMLMismatchedCounts(t *testing.T) {
	_, err := parseRenderDocsHTML(`<dl class="variablelist"><dt>a</dt><dt>b</dt><dd>x</dd></dl>`)
	if err == nil {
		t.Fatalf("expected an error for mismatched dt/dd counts")
	}
}

func TestRenderDocsProviderSync(t *testing.T) {
	ctx := context.Background()
	store, err := core.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	cfg := TemplateProviderConfig{Template: "renderdocs", Name: "nixos-manual", Source: "options.xhtml", Kinds: []string{"Option"}}
	p := newRenderDocsProvider(cfg).(*renderDocsProvider)
	p.fetch = func(ctx context.Context, source string) ([]byte, error) {
		return []byte(renderDocsFixture), nil
	}

	ch := events.NewChannel(store, status.NewBroadcaster(), p.Info().Name)
	if err := p.Sync(ctx, ch, []ngldata.Kind{ngldata.KindOption}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM options WHERE provider_name = 'nixos-manual'").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 option row, got %d", count)
	}
}
