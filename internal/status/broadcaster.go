// Package status fans out sync progress to any number of observers. It is
// the status-channel counterpart to the entity store's hot-reload watcher
// list: instead of invoking callbacks directly, each subscriber owns a
// buffered channel and a slow reader only ever loses its oldest queued
// event, never blocks a producer.
package status

import (
	"sync"

	"github.com/google/uuid"
)

// CountsSnapshot carries one non-negative counter per documentation kind.
type CountsSnapshot struct {
	Functions uint64
	Examples  uint64
	Guides    uint64
	Options   uint64
	Packages  uint64
	Types     uint64
}

// Event is the sum type published on the broadcaster. Exactly one of the
// four events shapes a given value; Kind names which. RunID is minted once
// per Broadcaster, so every event published through the same Broadcaster
// (every Registry.Sync call of the Registry that holds it) carries the same
// id.
type Event struct {
	Kind     EventKind
	RunID    string
	Provider string
	Snapshot CountsSnapshot
	Message  string
}

type EventKind int

const (
	ProviderStarted EventKind = iota
	Counts
	Message
	ProviderFinished
)

// subscriberBuffer is the bound on a subscriber's backlog; once full,
// Publish drops the oldest queued event to make room for the newest one
// rather than blocking the producer.
const subscriberBuffer = 256

// Broadcaster is a multi-producer, multi-subscriber fan-out of Event
// values. The zero value is not usable; use NewBroadcaster. A single
// instance is shared across every provider's refresh in every Sync call of
// one Registry, exactly as the entity store's single handle is shared.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	runID       string
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan Event), runID: uuid.New().String()}
}

// Subscribe registers a new observer and returns its event stream plus a
// cancel function that unregisters it. Late subscribers only observe events
// published after this call.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}

	return ch, cancel
}

// Publish fans ev out to every current subscriber. A subscriber whose
// buffer is full has its oldest event dropped to make room; Publish never
// blocks regardless of how slow a reader is.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev.RunID = b.runID
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (b *Broadcaster) ProviderStarted(provider string) {
	b.Publish(Event{Kind: ProviderStarted, Provider: provider})
}

func (b *Broadcaster) PublishCounts(provider string, snapshot CountsSnapshot) {
	b.Publish(Event{Kind: Counts, Provider: provider, Snapshot: snapshot})
}

func (b *Broadcaster) PublishMessage(provider, msg string) {
	b.Publish(Event{Kind: Message, Provider: provider, Message: msg})
}

func (b *Broadcaster) ProviderFinished(provider string, snapshot CountsSnapshot) {
	b.Publish(Event{Kind: ProviderFinished, Provider: provider, Snapshot: snapshot})
}
