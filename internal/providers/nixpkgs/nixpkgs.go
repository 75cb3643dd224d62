// Package nixpkgs streams nixpkgs's packages.json.br release artifact into
// Package rows, discovering the latest release from the S3 bucket listing
// when NGL_NIXPKGS_RELEASE isn't set.
package nixpkgs

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
)

const providerName = "nixpkgs"

var (
	keyRE          = regexp.MustCompile(`<Key>([^<]+)</Key>`)
	releaseRE      = regexp.MustCompile(`^nixpkgs/([^/]+)/packages\.json\.br$`)
	continuationRE = regexp.MustCompile(`<NextContinuationToken>([^<]+)</NextContinuationToken>`)
	prefixRE       = regexp.MustCompile(`<Prefix>(nixpkgs/[^<]+/)</Prefix>`)
)

const (
	defaultS3ListURL    = "https://nix-releases.s3.amazonaws.com/?list-type=2&prefix=nixpkgs/"
	defaultReleasesBase = "https://releases.nixos.org/nixpkgs"
)

// Provider streams nixpkgs package metadata for one discovered release.
// s3ListURL and releasesBase are overridable so tests can point them at a
// local server instead of the real endpoints.
type Provider struct {
	client       *retryablehttp.Client
	s3ListURL    string
	releasesBase string
}

// New builds a nixpkgs provider using the shared retryable HTTP client
// against the real nixpkgs release infrastructure.
func New() *Provider {
	return &Provider{
		client:       providers.NewHTTPClient(),
		s3ListURL:    defaultS3ListURL,
		releasesBase: defaultReleasesBase,
	}
}

func (p *Provider) Info() providers.Information {
	return providers.Information{
		Name:              providerName,
		SourceURL:         "https://releases.nixos.org/nixpkgs/",
		Kinds:             []ngldata.Kind{ngldata.KindPackage},
		SyncIntervalHours: 24,
	}
}

func (p *Provider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	if len(providers.Intersects(requested, p.Info().Kinds)) == 0 {
		return nil
	}

	release := os.Getenv("NGL_NIXPKGS_RELEASE")
	if release == "" {
		discovered, err := p.discoverRelease(ctx)
		if err != nil {
			return fmt.Errorf("discover nixpkgs release: %w", err)
		}
		release = discovered
	}

	return p.fetchPackagesForRelease(ctx, ch, release)
}

// discoverRelease scans the public S3 bucket listing (paginating via its
// continuation token) for the newest nixpkgs/<release>/packages.json.br
// key, falling back to a directory-prefix scan if the key regex finds
// nothing (e.g. the bucket only returns common prefixes for this query).
func (p *Provider) discoverRelease(ctx context.Context) (string, error) {
	var releases []string
	var continuation string

	for {
		body, err := p.fetchS3Listing(ctx, continuation)
		if err != nil {
			return "", err
		}

		for _, m := range keyRE.FindAllStringSubmatch(body, -1) {
			if rel := releaseRE.FindStringSubmatch(m[1]); rel != nil {
				releases = append(releases, rel[1])
			}
		}

		next := continuationRE.FindStringSubmatch(body)
		if next == nil {
			if len(releases) == 0 {
				for _, m := range prefixRE.FindAllStringSubmatch(body, -1) {
					rel := strings.TrimSuffix(strings.TrimPrefix(m[1], "nixpkgs/"), "/")
					releases = append(releases, rel)
				}
			}
			break
		}
		continuation = next[1]
	}

	if len(releases) == 0 {
		return "", fmt.Errorf("no nixpkgs releases found in bucket listing")
	}
	sort.Strings(releases)
	return releases[len(releases)-1], nil
}

func (p *Provider) fetchS3Listing(ctx context.Context, continuationToken string) (string, error) {
	listURL := p.s3ListURL
	if continuationToken != "" {
		listURL += "&continuation-token=" + url.QueryEscape(continuationToken)
	}
	body, err := providers.FetchSource(ctx, p.client, listURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *Provider) fetchPackagesForRelease(ctx context.Context, ch *events.Channel, release string) error {
	rel := strings.TrimPrefix(release, "nixpkgs/")
	packagesURL := fmt.Sprintf("%s/%s/packages.json.br", p.releasesBase, rel)

	body, err := providers.FetchSourceStream(ctx, p.client, packagesURL)
	if err != nil {
		return err
	}
	defer body.Close()

	buffered := bufio.NewReader(body)
	first, err := buffered.Peek(1)
	if err != nil && err != io.EOF {
		return fmt.Errorf("peek packages.json.br: %w", err)
	}

	var reader io.Reader = buffered
	if len(first) > 0 && first[0] != '{' {
		reader = brotli.NewReader(buffered)
	}

	return streamPackages(reader, func(name string, raw json.RawMessage) error {
		row, err := buildPackageRow(name, raw)
		if err != nil {
			return err
		}
		return ch.Send(ctx, events.PackageEvent{Row: row})
	})
}

// streamPackages walks the top-level JSON object looking for the "packages"
// field and decodes its map one entry at a time via json.Decoder's
// token-based API, so only a single package is ever materialized in memory
// regardless of the file's total size.
func streamPackages(r io.Reader, emit func(name string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		key, err := decodeKey(dec)
		if err != nil {
			return err
		}
		if key != "packages" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("skip field %q: %w", key, err)
			}
			continue
		}
		if err := streamPackagesObject(dec, emit); err != nil {
			return err
		}
	}
	return nil
}

func streamPackagesObject(dec *json.Decoder, emit func(name string, raw json.RawMessage) error) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		name, err := decodeKey(dec)
		if err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode package %q: %w", name, err)
		}
		if err := emit(name, raw); err != nil {
			return err
		}
	}
	_, err := dec.Token() // closing '}'
	return err
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func decodeKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func buildPackageRow(name string, raw json.RawMessage) (core.PackageRow, error) {
	var pkg map[string]interface{}
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return core.PackageRow{}, fmt.Errorf("unmarshal package %q: %w", name, err)
	}

	meta, _ := pkg["meta"].(map[string]interface{})

	row := core.PackageRow{
		ProviderName: providerName,
		Name:         name,
		Format:       string(ngldata.FormatPlainText),
		Data:         string(raw),
	}
	if version := getStr(pkg, "version"); version != "" {
		row.Version = nullString(version)
	}
	if meta != nil {
		row.Description = nullString(getStr(meta, "description"))
		row.Homepage = nullString(getStrOrFirst(meta, "homepage"))
		row.License = nullString(extractLicense(meta))
		if pos := getStr(meta, "position"); pos != "" {
			row.SourceCodeURL = nullString(positionToGithubURL(pos))
		}
		row.Broken = getBool(meta, "broken")
		row.Unfree = getBool(meta, "unfree")
	}
	return row, nil
}

func getStr(v map[string]interface{}, key string) string {
	s, _ := v[key].(string)
	return s
}

func getBool(v map[string]interface{}, key string) bool {
	b, _ := v[key].(bool)
	return b
}

func getStrOrFirst(v map[string]interface{}, key string) string {
	switch val := v[key].(type) {
	case string:
		return val
	case []interface{}:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func extractLicense(meta map[string]interface{}) string {
	switch l := meta["license"].(type) {
	case string:
		return l
	case map[string]interface{}:
		return licenseIdentifier(l)
	case []interface{}:
		if len(l) == 0 {
			return ""
		}
		switch first := l[0].(type) {
		case string:
			return first
		case map[string]interface{}:
			return licenseIdentifier(first)
		}
	}
	return ""
}

func licenseIdentifier(obj map[string]interface{}) string {
	if s, ok := obj["spdxId"].(string); ok {
		return s
	}
	if s, ok := obj["fullName"].(string); ok {
		return s
	}
	return ""
}

func positionToGithubURL(pos string) string {
	file, line, ok := strings.Cut(pos, ":")
	if !ok {
		line = "1"
	}
	return fmt.Sprintf("https://github.com/NixOS/nixpkgs/blob/master/%s#L%s", file, line)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
