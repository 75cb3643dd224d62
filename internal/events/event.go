// Package events implements the per-provider streaming event pipeline: a
// bounded producer/consumer channel carrying typed ingestion events, with a
// background batched writer and deferred guide cross-reference resolution.
package events

import "github.com/anthropics/ngl/internal/core"

// Event is a small closed sum type: exactly the set of ingestion events a
// provider may emit. The unexported marker method is the idiomatic Go
// substitute for the teacher's cfg.ID-switch dispatch and for the original
// Rust enum ProviderEvent.
type Event interface {
	isEvent()
}

// ExampleAttachment pairs an example row with the placeholder token its
// code replaced in the host's stored data, for the composite *WithExamples
// events.
type ExampleAttachment struct {
	PlaceholderKey string
	Row            core.ExampleRow
}

type FunctionEvent struct{ Row core.FunctionRow }
type ExampleEvent struct{ Row core.ExampleRow }
type GuideEvent struct{ Row core.GuideRow }
type OptionEvent struct{ Row core.OptionRow }
type PackageEvent struct{ Row core.PackageRow }
type TypeEvent struct{ Row core.TypeRow }

// GuideXrefEvent names a parent/child guide relation by the stable link
// each guide was (or will be) stored under. Resolution is deferred until
// the channel closes, since the parent or child guide may not be inserted
// yet at the time this event is emitted.
type GuideXrefEvent struct {
	ParentLink string
	ChildLink  string
}

type FunctionWithExamplesEvent struct {
	Row      core.FunctionRow
	Examples []ExampleAttachment
}

type GuideWithExamplesEvent struct {
	Row      core.GuideRow
	Examples []ExampleAttachment
}

type OptionWithExamplesEvent struct {
	Row      core.OptionRow
	Examples []ExampleAttachment
}

type PackageWithExamplesEvent struct {
	Row      core.PackageRow
	Examples []ExampleAttachment
}

type TypeWithExamplesEvent struct {
	Row      core.TypeRow
	Examples []ExampleAttachment
}

func (FunctionEvent) isEvent()             {}
func (ExampleEvent) isEvent()              {}
func (GuideEvent) isEvent()                {}
func (OptionEvent) isEvent()               {}
func (PackageEvent) isEvent()              {}
func (TypeEvent) isEvent()                 {}
func (GuideXrefEvent) isEvent()            {}
func (FunctionWithExamplesEvent) isEvent() {}
func (GuideWithExamplesEvent) isEvent()    {}
func (OptionWithExamplesEvent) isEvent()   {}
func (PackageWithExamplesEvent) isEvent()  {}
func (TypeWithExamplesEvent) isEvent()     {}
