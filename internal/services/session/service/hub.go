package service

import (
	"sync"
	"time"

	dom "basematch/internal/services/session/domain"
)

// Hub fans session events out to subscribers. Slow subscribers lose events rather
// than stall the session
type Hub struct {
	mu   sync.Mutex
	subs map[chan dom.Event]struct{}
	buf  int
	now  func() time.Time
}

// NewHub builds a hub whose subscriber channels hold buf events
func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = 16
	}
	return &Hub{subs: map[chan dom.Event]struct{}{}, buf: buf, now: time.Now}
}

// Subscribe registers a subscriber; cancel must be called to release it
func (h *Hub) Subscribe() (<-chan dom.Event, func()) {
	ch := make(chan dom.Event, h.buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers an event to every subscriber with room for it
func (h *Hub) Publish(typ string, data any) {
	if h == nil {
		return
	}
	ev := dom.Event{Type: typ, At: h.now().UTC(), Data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers is the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
