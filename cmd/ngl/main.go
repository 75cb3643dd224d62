// ngl (Nix Global Lookup) is a one-shot CLI: it syncs every configured
// documentation provider into a local SQLite store, runs one full-text
// search against it, and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
	"github.com/anthropics/ngl/internal/providers/example"
	"github.com/anthropics/ngl/internal/providers/meta"
	"github.com/anthropics/ngl/internal/providers/nixpkgs"
	"github.com/anthropics/ngl/internal/search"
	"github.com/anthropics/ngl/internal/status"
)

const version = "0.1.0"

// Compile-time feature gates for the providers linked into this build: the
// analogue of the teacher's switch cfg.ID dispatch in
// providers.Registry.reload, decided once at build time instead of from a
// database row. Flip one off and rebuild to ship NGL without that provider.
const (
	enableNixpkgsProvider = true
	enableExampleProvider = true
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("ngl", pflag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	providersFlag := fs.StringSlice("providers", nil, "Comma-separated provider names to restrict the search and sync to.")
	kindsFlag := fs.StringSlice("kinds", nil, "Comma-separated kinds (Function,Example,Guide,Option,Package,Type) to restrict to.")
	databaseURL := fs.String("database-url", "", "SQLite database path (default: $DATABASE_URL or ./ngl.db).")
	templatesPath := fs.String("templates", "templates.json", "Path to the meta-provider templates.json config.")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "ngl: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Printf("ngl v%s\n", version)
		return 0
	}

	positional := fs.Args()
	if len(positional) == 0 && fs.NFlag() == 0 {
		printUsage(fs)
		return 0
	}

	var searchTerm *string
	if len(positional) > 0 {
		term := strings.Join(positional, " ")
		searchTerm = &term
	}

	if *databaseURL == "" {
		*databaseURL = os.Getenv("DATABASE_URL")
	}
	if *databaseURL == "" {
		*databaseURL = "ngl.db"
	}

	kinds, err := parseKinds(*kindsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ngl: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, err := core.Open(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ngl: %v\n", err)
		return 1
	}
	defer store.Close()

	broadcaster := status.NewBroadcaster()
	registry := providers.NewRegistry(store, broadcaster)
	if enableNixpkgsProvider {
		registry.Register(nixpkgs.New())
	}
	if enableExampleProvider {
		registry.Register(example.New())
	}
	loadMetaProviders(registry, *templatesPath)
	watchMetaConfig(store, registry, *templatesPath)

	report, err := registry.Sync(ctx, kinds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ngl: sync: %v\n", err)
		if report.AllFailed() {
			return 1
		}
	}

	req := ngldata.Request{SearchTerm: searchTerm, Providers: *providersFlag, Kinds: kinds}
	results, err := search.Query(ctx, store, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ngl: query: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintf(os.Stderr, "ngl: encode: %v\n", err)
		return 1
	}
	return 0
}

// parseKinds converts the --kinds flag's raw tokens into ngldata.Kind
// values, rejecting unrecognized ones outright (unlike the meta-provider
// config, a bad CLI flag is a user mistake that should fail loudly).
func parseKinds(raw []string) ([]ngldata.Kind, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]ngldata.Kind, 0, len(raw))
	for _, token := range raw {
		k, ok := ngldata.ParseKind(token)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", token)
		}
		out = append(out, k)
	}
	return out, nil
}

// loadMetaProviders loads templates.json if present and registers every
// provider it builds. A missing config file is not an error: meta providers
// are optional on top of the built-in nixpkgs/example providers.
func loadMetaProviders(registry *providers.Registry, path string) {
	cfg, err := meta.LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "ngl: %v\n", err)
		}
		return
	}
	for _, p := range meta.BuildProviders(cfg) {
		registry.Register(p)
	}
}

// watchMetaConfig hot-reloads the meta-provider set whenever templates.json
// changes, without disturbing the compiled-in nixpkgs/example providers. It
// rides the store's own file watcher (store.WatchFile) rather than a second,
// independent one, since the store already owns the watcher goroutine's
// lifecycle via its ctx/cancel pair.
func watchMetaConfig(store *core.Store, registry *providers.Registry, path string) {
	if err := store.WatchFile(path, func() {
		cfg, err := meta.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ngl: reload %s: %v\n", path, err)
			return
		}
		var builtin []providers.Provider
		if enableNixpkgsProvider {
			builtin = append(builtin, nixpkgs.New())
		}
		if enableExampleProvider {
			builtin = append(builtin, example.New())
		}
		registry.Replace(append(builtin, meta.BuildProviders(cfg)...))
	}); err != nil {
		// templates.json not existing yet is expected; hot reload just
		// won't activate until it's created.
		return
	}
}

func printUsage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ngl v%s - Nix Global Lookup

Usage: ngl [flags] <search term>

Flags:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  ngl services.nginx.enable
  ngl --kinds Option,Package nginx
  ngl --providers nixpkgs --database-url ./ngl.db postgres

Environment Variables:
  DATABASE_URL               SQLite database path, overridden by --database-url
`)
}
