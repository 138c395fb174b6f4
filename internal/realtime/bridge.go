package realtime

import (
	"context"
	"fmt"

	"fxdesk/pkg/logger"
)

// Bridge forwards events from one feed to a publisher. With the redis driver
// a single instance relays database notifications to every API replica.
type Bridge struct {
	src    Feed
	dst    Publisher
	tables []string
	log    *logger.Logger
}

// NewBridge creates a bridge for the given tables
func NewBridge(src Feed, dst Publisher, tables ...string) *Bridge {
	return &Bridge{
		src:    src,
		dst:    dst,
		tables: tables,
		log:    logger.Get().With("component", "realtime_bridge"),
	}
}

// Run relays events until ctx is cancelled. It returns ErrSubscriptionLost
// when the source subscription ends first.
func (b *Bridge) Run(ctx context.Context) error {
	sub, err := b.src.Subscribe(ctx, b.tables...)
	if err != nil {
		return err
	}
	defer sub.Close()

	b.log.Infof("Relaying changes for %v", b.tables)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return fmt.Errorf("relay for %v: %w", b.tables, ErrSubscriptionLost)
			}
			if err := b.dst.Publish(ctx, ev); err != nil {
				b.log.Warnf("Relay failed for %s: %v", ev.Table, err)
			}
		}
	}
}
