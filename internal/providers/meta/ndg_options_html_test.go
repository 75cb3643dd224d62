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

const ndgOptionsHTMLFixture = `
<h3>services.foo.enable</h3>
<p>Type: boolean</p>
<p>Default: false</p>
<pre><code class="language-nix">services.foo.enable = true;</code></pre>
<h3>services.foo.port</h3>
<p>Type: signed integer</p>
<p>Default: 8080</p>
`

func TestParseNdgOptionsHTML(t *testing.T) {
	opts, err := parseNdgOptionsHTML(ndgOptionsHTMLFixture)
	if err != nil {
		t.Fatalf("parseNdgOptionsHTML: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if opts[0].name != "services.foo.enable" {
		t.Errorf("name = %q", opts[0].name)
	}
	if opts[0].typeSig != "boolean" {
		t.Errorf("typeSig = %q", opts[0].typeSig)
	}
	if opts[0].defaultValue != "false" {
		t.Errorf("defaultValue = %q", opts[0].defaultValue)
	}
}

func newTestNdgOptionsHTMLProvider(t *testing.T, body string) *ndgOptionsHTMLProvider {
	t.Helper()
	cfg := TemplateProviderConfig{
		Template: "ndg_options_html",
		Name:     "ndg-options",
		Source:   "options.html",
		Kinds:    []string{"Option", "Example"},
	}
	p := newNdgOptionsHTMLProvider(cfg).(*ndgOptionsHTMLProvider)
	p.fetch = func(ctx context.Context, source string) ([]byte, error) {
		return []byte(body), nil
	}
	return p
}

func TestNdgOptionsHTMLSyncEmitsOptionsAndExamples(t *testing.T) {
	ctx := context.Background()
	store, err := core.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	p := newTestNdgOptionsHTMLProvider(t, ndgOptionsHTMLFixture)
	ch := events.NewChannel(store, status.NewBroadcaster(), p.Info().Name)
	if err := p.Sync(ctx, ch, []ngldata.Kind{ngldata.KindOption, ngldata.KindExample}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var optCount, exCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM options WHERE provider_name = 'ndg-options'").Scan(&optCount)
	store.DB().QueryRow("SELECT COUNT(*) FROM examples WHERE provider_name = 'ndg-options'").Scan(&exCount)
	if optCount != 2 {
		t.Errorf("expected 2 options, got %d", optCount)
	}
	if exCount != 1 {
		t.Errorf("expected 1 example, got %d", exCount)
	}
}

func TestNdgOptionsHTMLSyncOptionsOnly(t *testing.T) {
	ctx := context.Background()
	store, err := core.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	p := newTestNdgOptionsHTMLProvider(t, ndgOptionsHTMLFixture)
	ch := events.NewChannel(store, status.NewBroadcaster(), p.Info().Name)
	if err := p.Sync(ctx, ch, []ngldata.Kind{ngldata.KindOption}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var exCount int
	store.DB().QueryRow("SELECT COUNT(*) FROM examples WHERE provider_name = 'ndg-options'").Scan(&exCount)
	if exCount != 0 {
		t.Errorf("expected no examples when Example kind isn't requested, got %d", exCount)
	}
}
