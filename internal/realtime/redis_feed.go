package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"fxdesk/pkg/logger"
)

// RedisChannelPrefix namespaces the per-table Pub/Sub channels
const RedisChannelPrefix = "fxdesk:changes:"

// RedisChannel returns the Pub/Sub channel for a table
func RedisChannel(table string) string {
	return RedisChannelPrefix + table
}

// RedisFeed subscribes to per-table Pub/Sub channels. It also publishes,
// so several API instances can share one change stream.
type RedisFeed struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisFeed creates a feed over an existing client
func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{
		client: client,
		log:    logger.Get().With("component", "redis_feed"),
	}
}

// Subscribe opens a dedicated Pub/Sub connection for the given tables
func (f *RedisFeed) Subscribe(ctx context.Context, tables ...string) (Subscription, error) {
	channels := make([]string, 0, len(tables))
	for _, t := range tables {
		channels = append(channels, RedisChannel(t))
	}

	ps := f.client.Subscribe(ctx, channels...)
	// Receive blocks until the subscription is confirmed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %v: %w", channels, err)
	}

	sub := &redisSubscription{
		ps: ps,
		ch: make(chan Event, subscriptionBuffer),
	}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(sub.ch)

		for msg := range ps.Channel() {
			ev, err := ParseEvent(msg.Payload)
			if err != nil {
				f.log.Warnf("Skipping message on %s: %v", msg.Channel, err)
				continue
			}
			offer(sub.ch, ev)
		}
	}()

	return sub, nil
}

// Publish sends an event on the table's channel
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := f.client.Publish(ctx, RedisChannel(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", ev.Table, err)
	}
	return nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	ch   chan Event
	wg   sync.WaitGroup
	once sync.Once
	err  error
}

func (s *redisSubscription) Events() <-chan Event { return s.ch }

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		s.wg.Wait()
		drain(s.ch)
	})
	return s.err
}
