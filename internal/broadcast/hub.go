// Package broadcast fans engine events out to connected viewers. Delivery is
// fire-and-forget: a slow subscriber loses events rather than blocking the
// game that produced them.
package broadcast

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 32

// Event is one broadcast message scoped to a game session.
type Event struct {
	Session string `json:"session"`
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

type subscriber struct {
	session string
	ch      chan Event
}

// Hub routes events to the subscribers of a session.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[int]subscriber
	nextID int
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "broadcast"),
		subs:   make(map[int]subscriber),
	}
}

// Subscribe registers a viewer for one session's events.
func (that *Hub) Subscribe(sessionID string) (int, <-chan Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nextID++
	id := that.nextID

	ch := make(chan Event, subscriberBuffer)
	that.subs[id] = subscriber{session: sessionID, ch: ch}

	return id, ch
}

// Unsubscribe removes a viewer and closes its channel.
func (that *Hub) Unsubscribe(id int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sub, ok := that.subs[id]
	if !ok {
		return
	}

	delete(that.subs, id)
	close(sub.ch)
}

// Publish delivers an event to every subscriber of the session. Full
// subscriber buffers drop the event.
func (that *Hub) Publish(sessionID, event string, payload any) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, sub := range that.subs {
		if sub.session != sessionID {
			continue
		}

		select {
		case sub.ch <- Event{Session: sessionID, Name: event, Payload: payload}:
		default:
			that.logger.Warn("subscriber buffer full, dropping event", "event", event, "session", sessionID)
		}
	}
}
