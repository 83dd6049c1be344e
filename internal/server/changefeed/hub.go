// Package changefeed fans document writes out to live listeners inside a
// single server process.
package changefeed

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/simpleshare/internal/logging"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
)

type ChangeType string

const (
	Added    ChangeType = "added"
	Modified ChangeType = "modified"
	Removed  ChangeType = "removed"
)

// Write describes one committed change. Prev is the document as it was
// before the write, nil when the document did not exist.
type Write struct {
	Deleted bool
	Doc     *models.Document
	Prev    *models.Document
}

// Event is what a subscriber sees, already classified against its filters.
type Event struct {
	Type     ChangeType
	Document *models.Document
}

const DefaultBuffer = 64

type Subscription struct {
	id         uint64
	collection string
	filters    []models.Filter
	ch         chan Event
}

// C is closed when the subscription is cancelled or dropped for falling
// behind.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	buffer int
	logger logging.Logger
	closed bool
}

func NewHub(buffer int, logger logging.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(collection string, filters []models.Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Subscription{
		collection: collection,
		filters:    append([]models.Filter(nil), filters...),
		ch:         make(chan Event, h.buffer),
	}
	if h.closed {
		close(s.ch)
		return s
	}

	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	return s
}

// Unsubscribe is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.id]; ok {
		delete(h.subs, s.id)
		close(s.ch)
	}
}

// Publish never blocks: a subscriber whose buffer is full is dropped.
func (h *Hub) Publish(ctx context.Context, w Write) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.subs {
		ev, ok := classify(s, w)
		if !ok {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			delete(h.subs, id)
			close(s.ch)
			h.logger.Warn(ctx, "dropping slow listener", "collection", s.collection, "subscription", id)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close drops every subscriber. Later subscriptions start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
	h.closed = true
}

func classify(s *Subscription, w Write) (Event, bool) {
	if w.Doc == nil {
		return Event{}, false
	}

	if w.Deleted {
		if w.Doc.Matches(s.collection, s.filters) {
			return Event{Type: Removed, Document: w.Doc}, true
		}
		return Event{}, false
	}

	now := w.Doc.Matches(s.collection, s.filters)
	before := w.Prev != nil && w.Prev.Matches(s.collection, s.filters)

	switch {
	case now && before:
		return Event{Type: Modified, Document: w.Doc}, true
	case now:
		return Event{Type: Added, Document: w.Doc}, true
	case before:
		// left the filtered set
		return Event{Type: Removed, Document: w.Doc}, true
	}
	return Event{}, false
}
