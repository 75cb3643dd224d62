// Package providers defines the documentation-provider contract every
// upstream source implements, the shared HTTP fetch helper they use to talk
// to the network, and the registry that assembles and drives them.
package providers

import (
	"context"

	"github.com/anthropics/ngl/internal/events"
	"github.com/anthropics/ngl/internal/ngldata"
)

// Information is a provider's declarative capability description: what it
// calls itself, where it fetches from, which kinds it can produce, and how
// often it expects to be refreshed.
type Information struct {
	Name              string
	SourceURL         string
	Kinds             []ngldata.Kind
	SyncIntervalHours uint32 // 0 means "use the refresh controller's default of 24"
}

// DeclaresKind reports whether this provider's capability set includes k.
func (i Information) DeclaresKind(k ngldata.Kind) bool {
	for _, declared := range i.Kinds {
		if declared == k {
			return true
		}
	}
	return false
}

// Provider is the contract every documentation source satisfies: a
// placeholder, the nixpkgs streaming package provider, and every
// config-driven meta provider are all Providers.
type Provider interface {
	Info() Information

	// Sync reads upstream and emits typed events for the intersection of
	// requested and declared kinds. If that intersection is empty, Sync
	// must return immediately without side effects.
	Sync(ctx context.Context, ch *events.Channel, requested []ngldata.Kind) error
}

// Intersects returns the kinds present in both requested and declared; an
// empty requested list means "no restriction" and yields declared as-is.
// Providers use an empty result to short-circuit Sync per the contract above.
func Intersects(requested, declared []ngldata.Kind) []ngldata.Kind {
	if len(requested) == 0 {
		return declared
	}
	declaredSet := make(map[ngldata.Kind]bool, len(declared))
	for _, k := range declared {
		declaredSet[k] = true
	}
	var out []ngldata.Kind
	for _, k := range requested {
		if declaredSet[k] {
			out = append(out, k)
		}
	}
	return out
}
