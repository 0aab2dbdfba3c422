// Package broadcast fans round engine events out to every connected
// subscriber. A single goroutine owns the subscriber map, so subscription
// changes and delivery never race. Slow subscribers lose their oldest
// buffered event instead of blocking the publisher.
package broadcast

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Subscriber is one consumer of the event stream. The websocket handler
// wraps one of these per connection; in-process consumers can subscribe
// directly.
type Subscriber struct {
	id int64
	ch chan Event
}

// Events returns the subscriber's delivery channel. The channel is closed
// on Unsubscribe and on hub shutdown.
func (s *Subscriber) Events() <-chan Event { return s.ch }

type Hub struct {
	subscribers map[int64]*Subscriber
	register    chan *Subscriber
	unregister  chan *Subscriber
	events      chan Event
	nextID      atomic.Int64
	started     atomic.Bool
	log         zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int64]*Subscriber),
		register:    make(chan *Subscriber, 16),
		unregister:  make(chan *Subscriber, 16),
		events:      make(chan Event, 256),
		log:         log,
	}
}

// Subscribe registers a new subscriber with the given buffer size.
// buffer <= 0 falls back to a sane default.
func (h *Hub) Subscribe(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &Subscriber{
		id: h.nextID.Add(1),
		ch: make(chan Event, buffer),
	}
	h.register <- sub
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.unregister <- sub
}

// Publish enqueues an event for fan-out. It never blocks the caller: if
// the hub queue is full the event is dropped and logged.
func (h *Hub) Publish(evt Event) {
	select {
	case h.events <- evt:
	default:
		h.log.Warn().Str("event", string(evt.Type)).Msg("hub queue full, dropping event")
	}
}

// Run owns the subscriber map until ctx is cancelled. Events are delivered
// to each subscriber in the order they were published.
func (h *Hub) Run(ctx context.Context) {
	if !h.started.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		for _, sub := range h.subscribers {
			close(sub.ch)
		}
		h.subscribers = make(map[int64]*Subscriber)
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("broadcast hub stopped")
			return
		case sub := <-h.register:
			h.subscribers[sub.id] = sub
		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub.id]; ok {
				delete(h.subscribers, sub.id)
				close(sub.ch)
			}
		case evt := <-h.events:
			h.dispatch(evt)
		}
	}
}

func (h *Hub) dispatch(evt Event) {
	for _, sub := range h.subscribers {
		select {
		case sub.ch <- evt:
		default:
			// channel full: drop the oldest event for this subscriber
			// so the new one still lands and other subscribers are
			// unaffected
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- evt:
			default:
			}
			h.log.Debug().Int64("subscriber", sub.id).Str("event", string(evt.Type)).
				Msg("slow subscriber, dropped oldest buffered event")
		}
	}
}
