// Package realtime delivers "something changed in table X" notifications.
// Events carry no row data: consumers react with a full refetch.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Op is the kind of change a notification reports
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event is a change notification for one table
type Event struct {
	Table string    `json:"table"`
	Op    Op        `json:"op"`
	At    time.Time `json:"at"`
}

// Subscription delivers events until closed
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Feed opens change subscriptions scoped to a set of tables. Every call opens
// an independent subscription.
type Feed interface {
	Subscribe(ctx context.Context, tables ...string) (Subscription, error)
}

// Publisher emits change notifications
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

const subscriptionBuffer = 16

// ErrSubscriptionLost reports a subscription whose event channel closed
// without the consumer calling Close, e.g. after a dropped connection.
var ErrSubscriptionLost = errors.New("change subscription lost")

// ParseEvent decodes the JSON payload emitted by the store's change trigger
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode change payload: %w", err)
	}
	if ev.Table == "" {
		return Event{}, fmt.Errorf("change payload has no table: %s", payload)
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return ev, nil
}

func tableSet(tables []string) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return set
}

// offer delivers ev without blocking. A full buffer already holds a pending
// event, and any single event triggers a full refetch, so dropping is safe.
func offer(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}

// Hub is an in-process feed. It backs tests and single-process deployments.
type Hub struct {
	mu   sync.Mutex
	subs map[*hubSubscription]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[*hubSubscription]struct{})}
}

// Subscribe registers a subscription for the given tables
func (h *Hub) Subscribe(_ context.Context, tables ...string) (Subscription, error) {
	sub := &hubSubscription{
		hub:    h,
		tables: tableSet(tables),
		ch:     make(chan Event, subscriptionBuffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub, nil
}

// Publish fans an event out to every subscription watching its table
func (h *Hub) Publish(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.tables[ev.Table] {
			offer(sub.ch, ev)
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type hubSubscription struct {
	hub    *Hub
	tables map[string]bool
	ch     chan Event
	once   sync.Once
}

func (s *hubSubscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription and drops events still buffered, so
// nothing is delivered after Close returns.
func (s *hubSubscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		drain(s.ch)
		close(s.ch)
	})
	return nil
}

// drain empties ch without blocking. Callers must have stopped all senders.
func drain(ch chan Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
