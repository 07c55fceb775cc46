package broadcast

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
)

func newTestHub() *Hub {
	return NewHub(slog.Default())
}

func TestHub_Publish(t *testing.T) {
	t.Run("SubscriberReceivesEvent", func(t *testing.T) {
		hub := newTestHub()

		// Given: a subscriber on the default session
		_, events := hub.Subscribe("default")

		// When: an event is published for that session
		hub.Publish("default", usecase.EventMessage, "Game On!")

		// Then: the subscriber receives it
		event := <-events
		require.Equal(t, "default", event.Session)
		require.Equal(t, usecase.EventMessage, event.Name)
		assert.Equal(t, "Game On!", event.Payload)
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		hub := newTestHub()

		// Given: subscribers on two different sessions
		_, loungeEvents := hub.Subscribe("lounge")
		_, barEvents := hub.Subscribe("bar")

		// When: an event is published for one session only
		hub.Publish("lounge", usecase.EventMessage, "hello")

		// Then: only that session's subscriber sees it
		event := <-loungeEvents
		assert.Equal(t, "lounge", event.Session)

		select {
		case event = <-barEvents:
			t.Fatalf("unexpected event on other session: %v", event)
		default:
		}
	})

	t.Run("FullBufferDropsEvent", func(t *testing.T) {
		hub := newTestHub()

		// Given: a subscriber that never drains its channel
		_, events := hub.Subscribe("default")

		// When: more events are published than the buffer holds
		for i := 0; i < subscriberBuffer+10; i++ {
			hub.Publish("default", usecase.EventMessage, i)
		}

		// Then: the overflow is dropped, not blocked on
		assert.Len(t, events, subscriberBuffer)
	})
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newTestHub()

	// Given: a subscriber
	id, events := hub.Subscribe("default")

	// When: it unsubscribes
	hub.Unsubscribe(id)

	// Then: its channel closes and later publishes reach nobody
	_, open := <-events
	require.False(t, open)

	hub.Publish("default", usecase.EventMessage, "nobody listens")
}
