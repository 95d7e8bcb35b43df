package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventPredictionsUpdated EventType = "predictions.updated"
	EventTaskChanged        EventType = "task.changed"
	EventSprintChanged      EventType = "sprint.changed"
)

// Event is a lightweight notification that something the prediction engine
// reads has changed, or that a recompute finished.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Resource  string            `json:"resource,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan Event) {
	id := ulid.Make().String()
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, resource string, metadata map[string]string) {
	b.Publish(Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Resource:  resource,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
}
