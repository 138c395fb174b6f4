package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/pkg/logger"
)

// ChangeChannel is the NOTIFY channel the table triggers publish on
const ChangeChannel = "table_changes"

// PostgresFeed listens for trigger notifications. Each subscription holds
// its own pooled connection for as long as it is open.
type PostgresFeed struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresFeed creates a feed over the given pool
func NewPostgresFeed(pool *pgxpool.Pool) *PostgresFeed {
	return &PostgresFeed{
		pool: pool,
		log:  logger.Get().With("component", "pg_feed"),
	}
}

// Subscribe acquires a connection and LISTENs on the change channel
func (f *PostgresFeed) Subscribe(ctx context.Context, tables ...string) (Subscription, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	sub := &pgSubscription{
		ch:     make(chan Event, subscriptionBuffer),
		cancel: cancel,
	}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(sub.ch)
		defer conn.Release()

		want := tableSet(tables)
		for {
			n, err := conn.Conn().WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					f.log.Warnf("Listen connection lost for %v: %v", tables, err)
				}
				return
			}
			ev, err := ParseEvent(n.Payload)
			if err != nil {
				f.log.Warnf("Skipping change notification: %v", err)
				continue
			}
			if want[ev.Table] {
				offer(sub.ch, ev)
			}
		}
	}()

	return sub, nil
}

type pgSubscription struct {
	ch     chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *pgSubscription) Events() <-chan Event { return s.ch }

// Close stops listening and returns the connection to the pool
func (s *pgSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
		drain(s.ch)
	})
	return nil
}
