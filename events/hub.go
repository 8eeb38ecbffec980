// Package events fans report status changes out to live subscribers.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"civicsetu-be/models"
)

// StatusEvent is published whenever a report changes status.
type StatusEvent struct {
	ReportID  string               `json:"reportId"`
	From      models.ReportStatus  `json:"from"`
	To        models.ReportStatus  `json:"to"`
	Label     string               `json:"label"`
	Color     models.ColorCategory `json:"color"`
	ChangedBy string               `json:"changedBy"`
	Comment   string               `json:"comment,omitempty"`
	At        time.Time            `json:"at"`
}

// NewStatusEvent fills the display fields from the status registry.
func NewStatusEvent(reportID string, change models.StatusChange) StatusEvent {
	info := models.LookupStatus(string(change.Status))
	return StatusEvent{
		ReportID:  reportID,
		From:      change.From,
		To:        change.Status,
		Label:     info.Label,
		Color:     info.Color,
		ChangedBy: change.ChangedBy.Hex(),
		Comment:   change.Comment,
		At:        change.ChangedAt,
	}
}

//go:generate mockgen -destination=mocks/events.go -package=mocks civicsetu-be/events Publisher,Subscriber

// Publisher sends status events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev StatusEvent) error
}

// Subscriber hands out event streams.
type Subscriber interface {
	Subscribe() (<-chan StatusEvent, func())
}

// Hub delivers events to in-process subscribers. A subscriber that does not
// keep up loses events rather than blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan StatusEvent]struct{}
	buffer  int
	dropped atomic.Uint64
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[chan StatusEvent]struct{}), buffer: buffer}
}

func (h *Hub) Publish(_ context.Context, ev StatusEvent) error {
	h.Broadcast(ev)
	return nil
}

// Broadcast delivers ev to every subscriber without blocking.
func (h *Hub) Broadcast(ev StatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber. The returned func unregisters it and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, h.buffer)
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

// Dropped is the number of deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
