package datasync

import (
	"context"

	"fxdesk/internal/auth"
	"fxdesk/internal/domain"
	"fxdesk/internal/realtime"
	"fxdesk/internal/stats"
)

// BacktestSync is the signed-in user's backtest runs, each with its result
type BacktestSync struct {
	*Collection[*domain.BacktestRun]
}

// NewBacktestSync creates a backtest collection. It refetches when either
// runs or results change.
func NewBacktestSync(repo domain.BacktestRepository, feed realtime.Feed, session *auth.Session, opts ...Option) *BacktestSync {
	fetch := func(ctx context.Context) ([]*domain.BacktestRun, error) {
		userID, ok := session.UserID()
		if !ok {
			return []*domain.BacktestRun{}, nil
		}
		return repo.ListByUser(ctx, userID)
	}

	tables := []string{domain.TableBacktestRuns, domain.TableBacktestResults}
	return &BacktestSync{
		Collection: NewCollection("backtests", fetch, feed, tables, opts...),
	}
}

// Summaries pairs every run with its result or a zero-valued placeholder
func (b *BacktestSync) Summaries() []stats.BacktestSummary {
	return stats.SummarizeBacktests(b.Items())
}
