package datasync

import (
	"context"
	"strings"

	"fxdesk/internal/domain"
	"fxdesk/internal/realtime"
	"fxdesk/internal/stats"
	apperrors "fxdesk/pkg/errors"
)

// ParseStatusFilter validates a status filter. An empty value or "all" means
// no filter; anything else must be a known status.
func ParseStatusFilter(raw string) (*domain.SignalStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "all" {
		return nil, nil
	}
	st := domain.ParseSignalStatus(raw)
	if !st.Known() {
		return nil, apperrors.NewValidationError("status", "must be one of pending, active, completed, cancelled", raw)
	}
	return &st, nil
}

// SignalSync is the live trade signal collection for one filter
type SignalSync struct {
	*Collection[*domain.TradeSignal]
	filter domain.SignalFilter
}

// NewSignalSync creates a signal collection. Signals are shared by every
// user, so no session is needed.
func NewSignalSync(repo domain.SignalRepository, feed realtime.Feed, filter domain.SignalFilter, opts ...Option) *SignalSync {
	name := "signals"
	if filter.Status != nil {
		name += ":" + string(*filter.Status)
	}

	fetch := func(ctx context.Context) ([]*domain.TradeSignal, error) {
		return repo.List(ctx, filter)
	}

	return &SignalSync{
		Collection: NewCollection(name, fetch, feed, []string{domain.TableTradeSignals}, opts...),
		filter:     filter,
	}
}

// Filter returns the filter the collection was created with
func (s *SignalSync) Filter() domain.SignalFilter { return s.filter }

// Stats computes summary statistics over the current snapshot
func (s *SignalSync) Stats() stats.SignalStats {
	return stats.ComputeSignalStats(s.Items())
}
