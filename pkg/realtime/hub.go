package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Hub is an in-process event dispatcher keyed by relation. It is the default
// Feed implementation and the delivery target of Socket.
type Hub struct {
	subs map[string]map[string]subscription
	mu   sync.RWMutex
}

type subscription struct {
	handler Handler
	filter  Filter
}

// NewHub creates an empty dispatcher.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string]subscription)}
}

// Subscribe registers a handler for one relation.
func (h *Hub) Subscribe(relation string, filter Filter, fn Handler) func() {
	id := uuid.NewString()

	h.mu.Lock()
	if h.subs[relation] == nil {
		h.subs[relation] = make(map[string]subscription)
	}
	h.subs[relation][id] = subscription{handler: fn, filter: filter}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[relation], id)
	}
}

// Publish delivers an event to every matching subscriber. Handlers run on
// the caller's goroutine; delivery order across subscribers is unspecified.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[e.Relation]))
	for _, sub := range h.subs[e.Relation] {
		if sub.filter.matches(e) {
			handlers = append(handlers, sub.handler)
		}
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}

var _ Feed = (*Hub)(nil)
