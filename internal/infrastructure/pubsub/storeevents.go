// Package pubsub provides the in-process store change bus. The sync engine
// and local write paths publish an event after each committed batch; the
// presentation layer (or the daemon's logging subscriber) reacts to them
// instead of polling the store.
package pubsub

import (
	"sync"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

// StoreEvent notifies subscribers that entities of one kind changed.
type StoreEvent struct {
	// Kind is the entity kind ("tickets", "clients", "hardware",
	// "inventory-events") or "pending-adjustments" for breadcrumbs.
	Kind string
	// Count is the number of records touched by the batch.
	Count int
}

// StoreBus is a fan-out event bus for store change notifications.
// Publish never blocks: events for a slow subscriber are dropped, which is
// acceptable because events carry no payload beyond "something changed".
type StoreBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan StoreEvent
	logger logger.Interface
}

// NewStoreBus creates a new StoreBus.
func NewStoreBus(log logger.Interface) *StoreBus {
	return &StoreBus{
		subs:   make(map[int]chan StoreEvent),
		logger: log,
	}
}

// Subscribe registers a subscriber with the given channel buffer size and
// returns the event channel plus an unsubscribe function. The channel is
// closed on unsubscribe.
func (b *StoreBus) Subscribe(buffer int) (<-chan StoreEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan StoreEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish delivers event to every subscriber, dropping it for subscribers
// whose buffers are full.
func (b *StoreBus) Publish(event StoreEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Debugw("store event dropped for slow subscriber",
				"kind", event.Kind,
			)
		}
	}
}
