package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xmhha/ysdb/pkg/ledger"
)

// ErrInvalidDays is returned when a day count is not positive.
var ErrInvalidDays = errors.New("day count must be positive")

// aggregator implements the Aggregator interface.
type aggregator struct {
	ledger ledger.Ledger
	now    func() time.Time
}

// New creates an aggregator over l.
func New(l ledger.Ledger, cfg Config) Aggregator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &aggregator{
		ledger: l,
		now:    cfg.Now,
	}
}

// trailing returns the window covering the given span up to and including
// the current instant: [now-span, now+1ns).
func (a *aggregator) trailing(span time.Duration) (start, end time.Time) {
	now := a.now()
	return now.Add(-span), now.Add(time.Nanosecond)
}

// Period implements Aggregator.Period.
func (a *aggregator) Period(ctx context.Context, chatID int64, start, end time.Time, days int) (PeriodStats, error) {
	if days <= 0 {
		return PeriodStats{}, ErrInvalidDays
	}

	total, err := a.ledger.ChatSumWindow(ctx, chatID, start, end)
	if err != nil {
		return PeriodStats{}, fmt.Errorf("failed to sum chat window: %w", err)
	}

	active, err := a.ledger.ActiveUserCount(ctx, chatID, start, end)
	if err != nil {
		return PeriodStats{}, fmt.Errorf("failed to count active users: %w", err)
	}

	stats := PeriodStats{
		Start:       start,
		End:         end,
		Days:        days,
		Total:       total,
		ActiveUsers: active,
		AvgPerDay:   float64(total) / float64(days),
	}

	if stats.HasParticipants() {
		stats.AvgPerParticipant = float64(total) / float64(active)
		stats.AvgPerParticipantPerDay = stats.AvgPerParticipant / float64(days)
	}

	return stats, nil
}

// Compare implements Aggregator.Compare.
func (a *aggregator) Compare(ctx context.Context, chatID int64, days int) (Comparison, error) {
	if days <= 0 {
		return Comparison{}, ErrInvalidDays
	}

	mid, end := a.trailing(time.Duration(days) * Day)
	start := mid.Add(-time.Duration(days) * Day)

	current, err := a.Period(ctx, chatID, mid, end, days)
	if err != nil {
		return Comparison{}, err
	}

	previous, err := a.Period(ctx, chatID, start, mid, days)
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		Days:     days,
		Current:  current,
		Previous: previous,
	}, nil
}

// UserHorizons implements Aggregator.UserHorizons.
func (a *aggregator) UserHorizons(ctx context.Context, userID, chatID int64, horizons []int, allChats bool) ([]Horizon, error) {
	out := make([]Horizon, 0, len(horizons))

	for _, days := range horizons {
		if days <= 0 {
			return nil, ErrInvalidDays
		}
		start, end := a.trailing(time.Duration(days) * Day)

		sum, err := a.ledger.SumWindow(ctx, userID, chatID, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to sum %d day horizon: %w", days, err)
		}
		h := Horizon{Days: days, Sum: sum}

		if allChats {
			h.AllChats, err = a.ledger.UserSumWindow(ctx, userID, start, end)
			if err != nil {
				return nil, fmt.Errorf("failed to sum %d day horizon across chats: %w", days, err)
			}
		}

		out = append(out, h)
	}

	return out, nil
}

// Top implements Aggregator.Top.
func (a *aggregator) Top(ctx context.Context, chatID int64, days int) (Leaderboard, error) {
	if days <= 0 {
		return Leaderboard{}, ErrInvalidDays
	}

	start, end := a.trailing(time.Duration(days) * Day)

	entries, err := a.ledger.TopByWindow(ctx, chatID, start, end)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("failed to rank users: %w", err)
	}

	return Leaderboard{
		Days:    days,
		Start:   start,
		End:     end,
		Entries: entries,
	}, nil
}

// TrailingSum implements Aggregator.TrailingSum.
func (a *aggregator) TrailingSum(ctx context.Context, userID, chatID int64, window time.Duration) (int64, error) {
	start, end := a.trailing(window)
	sum, err := a.ledger.SumWindow(ctx, userID, chatID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to sum trailing window: %w", err)
	}
	return sum, nil
}
