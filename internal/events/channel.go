package events

import (
	"context"
	"fmt"

	"github.com/anthropics/ngl/internal/core"
	"github.com/anthropics/ngl/internal/status"
)

// BatchSize is both the flush threshold for plain kind events and the
// divisor of the channel's buffer capacity (2 * BatchSize).
const BatchSize = 300

// Channel is the per-provider bounded conduit between a Provider's sync
// method and the entity store's batched writer. Exactly one Channel is
// owned by exactly one provider refresh.
type Channel struct {
	events       chan Event
	providerName string
	done         chan error
	finalCounts  status.CountsSnapshot
}

// NewChannel creates the channel and immediately starts its consumer
// goroutine, mirroring the teacher's watchConfig background-goroutine idiom
// but parameterized per call instead of per Engine.
func NewChannel(store *core.Store, broadcaster *status.Broadcaster, providerName string) *Channel {
	c := &Channel{
		events:       make(chan Event, 2*BatchSize),
		providerName: providerName,
		done:         make(chan error, 1),
	}

	broadcaster.ProviderStarted(providerName)
	go c.consume(store, broadcaster)

	return c
}

// Send enqueues ev, blocking if the buffer is full (back-pressure), or
// returning ctx.Err() if the context is canceled first.
func (c *Channel) Send(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseAndWait closes the producer side and blocks until the consumer has
// flushed every residual batch and resolved deferred guide cross-references.
func (c *Channel) CloseAndWait(ctx context.Context) error {
	close(c.events)
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counts reports the final per-kind totals this channel's provider produced.
// Only meaningful after CloseAndWait returns.
func (c *Channel) Counts() status.CountsSnapshot {
	return c.finalCounts
}

type pendingXref struct {
	parentLink, childLink string
}

func (c *Channel) consume(store *core.Store, broadcaster *status.Broadcaster) {
	ctx := context.Background()
	counts := status.CountsSnapshot{}

	var functions []core.FunctionRow
	var examples []core.ExampleRow
	var guides []core.GuideRow
	var options []core.OptionRow
	var packages []core.PackageRow
	var types []core.TypeRow
	var xrefs []pendingXref

	fail := func(err error) {
		// Drain the remaining events so the producer's Send calls never
		// block forever on a consumer that has already given up.
		for range c.events {
		}
		c.finalCounts = counts
		c.done <- err
	}

	flushFunctions := func() error {
		if len(functions) == 0 {
			return nil
		}
		if err := store.InsertFunctions(ctx, functions); err != nil {
			return err
		}
		functions = nil
		return nil
	}
	flushExamples := func() error {
		if len(examples) == 0 {
			return nil
		}
		if err := store.InsertExamples(ctx, examples); err != nil {
			return err
		}
		examples = nil
		return nil
	}
	flushGuides := func() error {
		if len(guides) == 0 {
			return nil
		}
		if err := store.InsertGuides(ctx, guides); err != nil {
			return err
		}
		guides = nil
		return nil
	}
	flushOptions := func() error {
		if len(options) == 0 {
			return nil
		}
		if err := store.InsertOptions(ctx, options); err != nil {
			return err
		}
		options = nil
		return nil
	}
	flushPackages := func() error {
		if len(packages) == 0 {
			return nil
		}
		if err := store.InsertPackages(ctx, packages); err != nil {
			return err
		}
		packages = nil
		return nil
	}
	flushTypes := func() error {
		if len(types) == 0 {
			return nil
		}
		if err := store.InsertTypes(ctx, types); err != nil {
			return err
		}
		types = nil
		return nil
	}

	setProvider := func(name string) string {
		if name == "" {
			return c.providerName
		}
		return name
	}

	insertAttachments := func(attach []ExampleAttachment, joinFn func(exampleID int64, placeholderKey string) error) error {
		for _, a := range attach {
			a.Row.ProviderName = setProvider(a.Row.ProviderName)
			exID, err := store.InsertExample(ctx, a.Row)
			if err != nil {
				return err
			}
			if err := joinFn(exID, a.PlaceholderKey); err != nil {
				return err
			}
			counts.Examples++
			broadcaster.PublishCounts(c.providerName, counts)
		}
		return nil
	}

	for ev := range c.events {
		switch e := ev.(type) {
		case FunctionEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			functions = append(functions, e.Row)
			counts.Functions++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(functions) >= BatchSize {
				if err := flushFunctions(); err != nil {
					fail(fmt.Errorf("flush functions: %w", err))
					return
				}
			}

		case ExampleEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			examples = append(examples, e.Row)
			counts.Examples++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(examples) >= BatchSize {
				if err := flushExamples(); err != nil {
					fail(fmt.Errorf("flush examples: %w", err))
					return
				}
			}

		case GuideEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			guides = append(guides, e.Row)
			counts.Guides++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(guides) >= BatchSize {
				if err := flushGuides(); err != nil {
					fail(fmt.Errorf("flush guides: %w", err))
					return
				}
			}

		case OptionEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			options = append(options, e.Row)
			counts.Options++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(options) >= BatchSize {
				if err := flushOptions(); err != nil {
					fail(fmt.Errorf("flush options: %w", err))
					return
				}
			}

		case PackageEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			packages = append(packages, e.Row)
			counts.Packages++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(packages) >= BatchSize {
				if err := flushPackages(); err != nil {
					fail(fmt.Errorf("flush packages: %w", err))
					return
				}
			}

		case TypeEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			types = append(types, e.Row)
			counts.Types++
			broadcaster.PublishCounts(c.providerName, counts)
			if len(types) >= BatchSize {
				if err := flushTypes(); err != nil {
					fail(fmt.Errorf("flush types: %w", err))
					return
				}
			}

		case GuideXrefEvent:
			xrefs = append(xrefs, pendingXref{parentLink: e.ParentLink, childLink: e.ChildLink})

		case FunctionWithExamplesEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			id, err := store.InsertFunction(ctx, e.Row)
			if err != nil {
				fail(fmt.Errorf("insert function with examples: %w", err))
				return
			}
			counts.Functions++
			broadcaster.PublishCounts(c.providerName, counts)
			if err := insertAttachments(e.Examples, func(exID int64, key string) error {
				return store.InsertFunctionExample(ctx, id, exID, key)
			}); err != nil {
				fail(fmt.Errorf("insert function examples: %w", err))
				return
			}

		case GuideWithExamplesEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			id, err := store.InsertGuide(ctx, e.Row)
			if err != nil {
				fail(fmt.Errorf("insert guide with examples: %w", err))
				return
			}
			counts.Guides++
			broadcaster.PublishCounts(c.providerName, counts)
			if err := insertAttachments(e.Examples, func(exID int64, key string) error {
				return store.InsertGuideExample(ctx, id, exID, key)
			}); err != nil {
				fail(fmt.Errorf("insert guide examples: %w", err))
				return
			}

		case OptionWithExamplesEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			id, err := store.InsertOption(ctx, e.Row)
			if err != nil {
				fail(fmt.Errorf("insert option with examples: %w", err))
				return
			}
			counts.Options++
			broadcaster.PublishCounts(c.providerName, counts)
			if err := insertAttachments(e.Examples, func(exID int64, key string) error {
				return store.InsertOptionExample(ctx, id, exID, key)
			}); err != nil {
				fail(fmt.Errorf("insert option examples: %w", err))
				return
			}

		case PackageWithExamplesEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			id, err := store.InsertPackage(ctx, e.Row)
			if err != nil {
				fail(fmt.Errorf("insert package with examples: %w", err))
				return
			}
			counts.Packages++
			broadcaster.PublishCounts(c.providerName, counts)
			if err := insertAttachments(e.Examples, func(exID int64, key string) error {
				return store.InsertPackageExample(ctx, id, exID, key)
			}); err != nil {
				fail(fmt.Errorf("insert package examples: %w", err))
				return
			}

		case TypeWithExamplesEvent:
			e.Row.ProviderName = setProvider(e.Row.ProviderName)
			id, err := store.InsertType(ctx, e.Row)
			if err != nil {
				fail(fmt.Errorf("insert type with examples: %w", err))
				return
			}
			counts.Types++
			broadcaster.PublishCounts(c.providerName, counts)
			if err := insertAttachments(e.Examples, func(exID int64, key string) error {
				return store.InsertTypeExample(ctx, id, exID, key)
			}); err != nil {
				fail(fmt.Errorf("insert type examples: %w", err))
				return
			}
		}
	}

	for _, flush := range []func() error{flushFunctions, flushExamples, flushGuides, flushOptions, flushPackages, flushTypes} {
		if err := flush(); err != nil {
			c.finalCounts = counts
			c.done <- fmt.Errorf("flush residual: %w", err)
			return
		}
	}

	for _, x := range xrefs {
		parentID, ok, err := store.LookupGuideIDByLink(ctx, c.providerName, x.parentLink)
		if err != nil {
			c.finalCounts = counts
			c.done <- fmt.Errorf("resolve guide xref: %w", err)
			return
		}
		if !ok {
			continue
		}
		childID, ok, err := store.LookupGuideIDByLink(ctx, c.providerName, x.childLink)
		if err != nil {
			c.finalCounts = counts
			c.done <- fmt.Errorf("resolve guide xref: %w", err)
			return
		}
		if !ok {
			continue
		}
		if err := store.InsertGuideXref(ctx, parentID, childID); err != nil {
			c.finalCounts = counts
			c.done <- fmt.Errorf("insert guide xref: %w", err)
			return
		}
	}

	broadcaster.ProviderFinished(c.providerName, counts)
	c.finalCounts = counts
	c.done <- nil
}
