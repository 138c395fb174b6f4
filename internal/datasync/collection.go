// Package datasync keeps named collections of store records fresh. A
// collection holds the last successful snapshot, a loading flag and the last
// fetch error, and refetches everything whenever its tables change.
package datasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fxdesk/internal/metrics"
	"fxdesk/internal/realtime"
	"fxdesk/pkg/logger"
)

// FetchFunc loads the full collection
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// State is a point-in-time copy of a collection
type State[T any] struct {
	Items     []T
	Loading   bool
	Err       error
	UpdatedAt time.Time
}

type options struct {
	sequenced        bool
	log              *logger.Logger
	fetchTimeout     time.Duration
	resubscribeDelay time.Duration
}

// Option configures a collection
type Option func(*options)

// WithSequencedFetches tags every fetch with a sequence number and drops
// responses older than the last applied one. Without it the most recently
// resolved fetch wins, whatever order the fetches were issued in.
func WithSequencedFetches() Option {
	return func(o *options) { o.sequenced = true }
}

// WithLogger overrides the collection's logger
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithFetchTimeout bounds fetches started by change notifications
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.fetchTimeout = d }
}

// WithResubscribeDelay sets the first retry delay after the change
// subscription is lost. Retries back off up to maxResubscribeDelay.
func WithResubscribeDelay(d time.Duration) Option {
	return func(o *options) { o.resubscribeDelay = d }
}

const maxResubscribeDelay = 30 * time.Second

// Collection is a live, refetch-on-change snapshot of store records
type Collection[T any] struct {
	name   string
	fetch  FetchFunc[T]
	feed   realtime.Feed
	tables []string
	opts   options

	mu        sync.RWMutex
	items     []T
	loading   bool
	err       error
	updatedAt time.Time
	issued    uint64
	applied   uint64
	sub       realtime.Subscription
	closed    bool
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewCollection creates a collection. It does nothing until Start or Refetch.
// A nil feed disables change subscriptions.
func NewCollection[T any](name string, fetch FetchFunc[T], feed realtime.Feed, tables []string, opts ...Option) *Collection[T] {
	o := options{fetchTimeout: 10 * time.Second, resubscribeDelay: time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	o.log = o.log.With("collection", name)

	return &Collection[T]{
		name:   name,
		fetch:  fetch,
		feed:   feed,
		tables: tables,
		opts:   o,
		items:  []T{},
		stop:   make(chan struct{}),
	}
}

// Name returns the collection name
func (c *Collection[T]) Name() string { return c.name }

// Items returns the current snapshot. The slice must not be modified.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

// Loading reports whether a fetch is in progress
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the last resolved fetch, nil after a success
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// State returns items, loading and error read under one lock
func (c *Collection[T]) State() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State[T]{Items: c.items, Loading: c.loading, Err: c.err, UpdatedAt: c.updatedAt}
}

// Refetch loads the collection and applies the result. On failure the error
// is recorded and returned, and the previous snapshot is kept.
func (c *Collection[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.loading = true
	c.mu.Unlock()

	start := time.Now()
	items, err := c.fetch(ctx)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.sequenced && seq < c.applied {
		if c.issued == c.applied {
			c.loading = false
		}
		metrics.RecordDiscardedFetch(c.name)
		c.opts.log.Debugf("Discarding fetch #%d, #%d already applied", seq, c.applied)
		return nil
	}

	metrics.RecordFetch(c.name, elapsed, len(items), err)
	c.applied = seq
	c.loading = false
	if err != nil {
		c.err = err
		c.opts.log.Warnf("Fetch failed: %v", err)
		return err
	}

	if items == nil {
		items = []T{}
	}
	c.items = items
	c.err = nil
	c.updatedAt = time.Now()
	return nil
}

// replace installs a snapshot produced by a local write. In sequenced mode
// fetches issued before the write are discarded when they resolve.
func (c *Collection[T]) replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = c.issued + 1
	c.issued = c.applied
	c.items = items
	c.err = nil
	c.updatedAt = time.Now()
}

// Start subscribes to the collection's tables and performs the initial fetch.
// The fetch error, if any, is returned but the subscription stays open.
func (c *Collection[T]) Start(ctx context.Context) error {
	if c.feed != nil && len(c.tables) > 0 {
		sub, err := c.feed.Subscribe(ctx, c.tables...)
		if err != nil {
			return err
		}
		if !c.adopt(sub) {
			return nil
		}

		c.wg.Add(1)
		go c.watch(sub)
	}

	return c.Refetch(ctx)
}

// adopt stores sub as the current subscription. It closes sub and returns
// false when the collection is already closed.
func (c *Collection[T]) adopt(sub realtime.Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = sub.Close()
		return false
	}
	c.sub = sub
	return true
}

func (c *Collection[T]) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// watch refetches on every event. When the subscription ends on its own the
// loss is recorded in the error slot until the first fetch after
// resubscribing succeeds.
func (c *Collection[T]) watch(sub realtime.Subscription) {
	defer c.wg.Done()
	for {
		for ev := range sub.Events() {
			if c.isClosed() {
				return
			}
			metrics.RecordChangeEvent(ev.Table)
			c.opts.log.Debugf("Change on %s (%s), refetching", ev.Table, ev.Op)
			c.refetchOnChange()
		}
		if c.isClosed() {
			return
		}
		_ = sub.Close()

		c.mu.Lock()
		c.err = fmt.Errorf("%s: %w", c.name, realtime.ErrSubscriptionLost)
		c.mu.Unlock()
		c.opts.log.Warnf("Change subscription lost, resubscribing")

		sub = c.resubscribe()
		if sub == nil {
			return
		}
		c.opts.log.Infof("[OK] Change subscription restored")
		c.refetchOnChange()
	}
}

func (c *Collection[T]) refetchOnChange() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.fetchTimeout)
	defer cancel()
	_ = c.Refetch(ctx)
}

// resubscribe retries with backoff until it succeeds or the collection is
// closed, in which case it returns nil.
func (c *Collection[T]) resubscribe() realtime.Subscription {
	delay := c.opts.resubscribeDelay
	for {
		select {
		case <-c.stop:
			return nil
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.fetchTimeout)
		sub, err := c.feed.Subscribe(ctx, c.tables...)
		cancel()
		if err == nil {
			if !c.adopt(sub) {
				return nil
			}
			return sub
		}

		c.opts.log.Warnf("Resubscribe failed, retrying in %s: %v", delay, err)
		delay *= 2
		if delay > maxResubscribeDelay {
			delay = maxResubscribeDelay
		}
	}
}

// Close tears the change subscription down. A fetch already in flight may
// still land afterwards.
func (c *Collection[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	close(c.stop)
	c.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	c.wg.Wait()
	return err
}
