package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

// Handler receives published events. Handlers run on the emitting goroutine and
// must not block; slow consumers buffer and drop on their side.
type Handler func(Event)

// Bus is a synchronous in-process publish/subscribe hub.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
	log      zerolog.Logger
	now      func() time.Time
}

var _ domain.EventEmitter = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
		log:      log.With().Str("service", "events").Logger(),
		now:      time.Now,
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Emit publishes data for userID ("" broadcasts to everyone).
func (b *Bus) Emit(userID string, data domain.EventData) {
	if data == nil {
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Type:      data.EventType(),
		UserID:    userID,
		Timestamp: b.now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event)
	}

	if e := b.log.Debug(); e.Enabled() {
		eventJSON, _ := json.Marshal(event)
		e.Str("event_type", event.Type).
			Str("user_id", userID).
			RawJSON("event", eventJSON).
			Msg("Event emitted")
	}
}

func (b *Bus) dispatch(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("event_type", event.Type).Msg("Event handler panicked")
		}
	}()
	h(event)
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
