package nixpkgs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
	"github.com/anthropics/ngl/internal/status"
)

const samplePackagesJSON = `{
  "version": 3,
  "packages": {
    "hello": {
      "version": "2.12.1",
      "meta": {
        "description": "A program that produces a familiar, friendly greeting",
        "homepage": "https://www.gnu.org/software/hello/",
        "license": {"spdxId": "GPL-3.0-or-later", "fullName": "GNU General Public License v3.0 or later"},
        "position": "pkgs/by-name/he/hello/package.nix:12",
        "broken": false,
        "unfree": false
      }
    },
    "some-unfree-thing": {
      "version": "1.0",
      "meta": {
        "license": ["MIT", {"spdxId": "BSD-3-Clause"}],
        "homepage": ["https://example.com", "https://example.org"],
        "unfree": true
      }
    }
  }
}`

func newTestServer(t *testing.T) (*httptest.Server, *Provider) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/s3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<ListBucketResult><Contents><Key>nixpkgs/25.05/packages.json.br</Key></Contents><Contents><Key>nixpkgs/24.11/packages.json.br</Key></Contents></ListBucketResult>`)
	})
	mux.HandleFunc("/releases/25.05/packages.json.br", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePackagesJSON)
	})
	srv := httptest.NewServer(mux)

	p := &Provider{
		client:       providers.NewHTTPClient(),
		s3ListURL:    srv.URL + "/s3",
		releasesBase: srv.URL + "/releases",
	}
	return srv, p
}

func TestDiscoverReleasePicksNewest(t *testing.T) {
	srv, p := newTestServer(t)
	defer srv.Close()

	release, err := p.discoverRelease(context.Background())
	if err != nil {
		t.Fatalf("discoverRelease: %v", err)
	}
	if release != "25.05" {
		t.Errorf("expected 25.05, got %q", release)
	}
}

func TestSyncEmitsPackagesFromUncompressedJSON(t *testing.T) {
	srv, p := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	store, err := core.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ch := events.NewChannel(store, status.NewBroadcaster(), p.Info().Name)
	if err := p.fetchPackagesForRelease(ctx, ch, "25.05"); err != nil {
		t.Fatalf("fetchPackagesForRelease: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM packages").Scan(&count)
	if count != 2 {
		t.Fatalf("expected 2 packages, got %d", count)
	}

	var license, homepage, sourceCodeURL string
	var broken, unfree int
	if err := store.DB().QueryRow(
		"SELECT license, homepage, source_code_url, broken, unfree FROM packages WHERE name = 'hello'",
	).Scan(&license, &homepage, &sourceCodeURL, &broken, &unfree); err != nil {
		t.Fatalf("query hello: %v", err)
	}
	if license != "GPL-3.0-or-later" {
		t.Errorf("expected spdxId to win, got %q", license)
	}
	if sourceCodeURL != "https://github.com/NixOS/nixpkgs/blob/master/pkgs/by-name/he/hello/package.nix#L12" {
		t.Errorf("unexpected source code url: %q", sourceCodeURL)
	}

	var unfreeLicense, unfreeHomepage string
	if err := store.DB().QueryRow(
		"SELECT license, homepage FROM packages WHERE name = 'some-unfree-thing'",
	).Scan(&unfreeLicense, &unfreeHomepage); err != nil {
		t.Fatalf("query some-unfree-thing: %v", err)
	}
	if unfreeLicense != "MIT" {
		t.Errorf("expected first license entry MIT, got %q", unfreeLicense)
	}
	if unfreeHomepage != "https://example.com" {
		t.Errorf("expected first homepage entry, got %q", unfreeHomepage)
	}
}

func TestSyncSkipsWhenPackageNotRequested(t *testing.T) {
	srv, p := newTestServer(t)
	defer srv.Close()

	ctx := context.Background()
	store, err := core.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ch := events.NewChannel(store, status.NewBroadcaster(), p.Info().Name)
	if err := p.Sync(ctx, ch, []ngldata.Kind{ngldata.KindFunction}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := ch.CloseAndWait(ctx); err != nil {
		t.Fatalf("CloseAndWait: %v", err)
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM packages").Scan(&count)
	if count != 0 {
		t.Errorf("expected no packages emitted, got %d", count)
	}
}
