// Package example is the minimal reference provider: copy this file when
// writing a new one. It declares Function support and emits exactly one
// row, "banana", to show the shape a real provider's Sync fills in.
package example

import (
	"context"
	"database/sql"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
	"github.com/anthropics/ngl/internal/providers"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

const providerName = "example"

// Provider is the reference implementation of providers.Provider.
type Provider struct{}

// New returns a ready-to-register example provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Info() providers.Information {
	return providers.Information{
		Name:      providerName,
		SourceURL: "example.com",
		Kinds:     []ngldata.Kind{ngldata.KindFunction},
		// Syncs once, then effectively never again.
		SyncIntervalHours: ^uint32(0),
	}
}

func (p *Provider) Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error {
	if len(providers.Intersects(requested, p.Info().Kinds)) == 0 {
		return nil
	}

	return ch.Send(ctx, events.FunctionEvent{
		Row: core.FunctionRow{
			ProviderName:  providerName,
			Name:          "banana",
			Format:        string(ngldata.FormatMarkdown),
			Signature:     nullString("x, y -> v"),
			Data:          "so much data!",
			SourceURL:     nullString("example.com"),
			SourceCodeURL: nullString("example.com/src#L1"),
			Aliases:       nullString(`["nanner"]`),
		},
	})
}
