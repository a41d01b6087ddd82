package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

func TestStoreBus_PublishSubscribe(t *testing.T) {
	bus := NewStoreBus(logger.NewLogger())

	ch, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Publish(StoreEvent{Kind: "tickets", Count: 3})

	event := <-ch
	assert.Equal(t, "tickets", event.Kind)
	assert.Equal(t, 3, event.Count)
}

func TestStoreBus_MultipleSubscribers(t *testing.T) {
	bus := NewStoreBus(logger.NewLogger())

	ch1, unsub1 := bus.Subscribe(1)
	ch2, unsub2 := bus.Subscribe(1)
	defer unsub1()
	defer unsub2()

	bus.Publish(StoreEvent{Kind: "hardware", Count: 1})

	assert.Equal(t, "hardware", (<-ch1).Kind)
	assert.Equal(t, "hardware", (<-ch2).Kind)
}

func TestStoreBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewStoreBus(logger.NewLogger())

	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	// second publish overflows the buffer and is dropped, not blocked on
	bus.Publish(StoreEvent{Kind: "clients", Count: 1})
	bus.Publish(StoreEvent{Kind: "clients", Count: 2})

	event := <-ch
	assert.Equal(t, 1, event.Count)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestStoreBus_Unsubscribe(t *testing.T) {
	bus := NewStoreBus(logger.NewLogger())

	ch, unsubscribe := bus.Subscribe(1)
	unsubscribe()

	// channel is closed; publishing afterwards must not panic
	_, open := <-ch
	require.False(t, open)
	bus.Publish(StoreEvent{Kind: "tickets", Count: 1})

	// unsubscribing twice is safe
	unsubscribe()
}
