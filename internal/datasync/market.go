package datasync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fxdesk/internal/domain"
	"fxdesk/internal/realtime"
)

// MarketSync is the market overview: one snapshot per configured pair, in
// configuration order
type MarketSync struct {
	*Collection[*domain.MarketSnapshot]
	pairs []string
}

// NewMarketSync creates the market overview collection
func NewMarketSync(repo domain.MarketRepository, feed realtime.Feed, pairs []string, opts ...Option) *MarketSync {
	pairs = append([]string(nil), pairs...)

	fetch := func(ctx context.Context) ([]*domain.MarketSnapshot, error) {
		return FetchMarketSnapshots(ctx, repo, pairs)
	}

	tables := []string{domain.TableAIPredictions, domain.TableTechnicalIndicators, domain.TableFairValueGaps}
	return &MarketSync{
		Collection: NewCollection("markets", fetch, feed, tables, opts...),
		pairs:      pairs,
	}
}

// Pairs returns the pairs the overview covers
func (m *MarketSync) Pairs() []string { return m.pairs }

// Snapshot returns the current snapshot for a pair, nil when absent
func (m *MarketSync) Snapshot(pair string) *domain.MarketSnapshot {
	for _, s := range m.Items() {
		if s.Pair == pair {
			return s
		}
	}
	return nil
}

// FetchMarketSnapshots runs the prediction, indicator and gap queries for
// every pair concurrently. Any failure fails the whole fetch.
func FetchMarketSnapshots(ctx context.Context, repo domain.MarketRepository, pairs []string) ([]*domain.MarketSnapshot, error) {
	out := make([]*domain.MarketSnapshot, len(pairs))
	g, gctx := errgroup.WithContext(ctx)

	for i, pair := range pairs {
		snap := &domain.MarketSnapshot{Pair: pair}
		out[i] = snap

		g.Go(func() error {
			p, err := repo.LatestPrediction(gctx, pair)
			if err != nil {
				return fmt.Errorf("prediction for %s: %w", pair, err)
			}
			snap.Prediction = p
			return nil
		})
		g.Go(func() error {
			ind, err := repo.LatestIndicators(gctx, pair)
			if err != nil {
				return fmt.Errorf("indicators for %s: %w", pair, err)
			}
			snap.Indicators = ind
			return nil
		})
		g.Go(func() error {
			n, err := repo.CountUnfilledFVGs(gctx, pair)
			if err != nil {
				return fmt.Errorf("fair value gaps for %s: %w", pair, err)
			}
			snap.ActiveFVGs = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
