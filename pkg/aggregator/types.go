// Package aggregator computes windowed contribution statistics.
//
// The aggregator holds no state of its own. Every call is answered from the
// ledger window queries, so results are never stale.
//
// Example usage:
//
//	agg := aggregator.New(l, aggregator.Config{})
//
//	cmp, err := agg.Compare(ctx, chatID, 7)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("this week: %d, last week: %d\n", cmp.Current.Total, cmp.Previous.Total)
package aggregator

import (
	"context"
	"time"

	"github.com/0xmhha/ysdb/pkg/ledger"
)

// Day is the length of one reporting day.
const Day = 24 * time.Hour

// Aggregator computes statistics over ledger windows.
type Aggregator interface {
	// Period computes chat statistics for [start, end).
	//
	// Parameters:
	//   - chatID: Chat to aggregate
	//   - start, end: Window bounds
	//   - days: Day count used for per-day averages
	Period(ctx context.Context, chatID int64, start, end time.Time, days int) (PeriodStats, error)

	// Compare computes the current period [now-days, now) and the previous
	// period [now-2*days, now-days) for a chat.
	Compare(ctx context.Context, chatID int64, days int) (Comparison, error)

	// UserHorizons sums a user's contributions over trailing horizons.
	//
	// Parameters:
	//   - userID, chatID: Whose contributions to sum
	//   - horizons: Horizon lengths in days
	//   - allChats: Also sum the user's contributions across every chat
	//
	// Returns one Horizon per requested length, in the same order.
	UserHorizons(ctx context.Context, userID, chatID int64, horizons []int, allChats bool) ([]Horizon, error)

	// Top ranks the chat's users over the trailing days.
	Top(ctx context.Context, chatID int64, days int) (Leaderboard, error)

	// TrailingSum sums a user's contributions in a chat over the trailing window.
	TrailingSum(ctx context.Context, userID, chatID int64, window time.Duration) (int64, error)
}

// PeriodStats contains chat statistics for one window.
type PeriodStats struct {
	// Start and End bound the window [Start, End).
	Start time.Time
	End   time.Time

	// Days is the window length in days.
	Days int

	// Total is the sum of all contributions.
	Total int64

	// ActiveUsers is the number of distinct contributors.
	ActiveUsers int

	// AvgPerDay is Total / Days.
	AvgPerDay float64

	// AvgPerParticipant is Total / ActiveUsers. Zero when HasParticipants is false.
	AvgPerParticipant float64

	// AvgPerParticipantPerDay is AvgPerParticipant / Days.
	AvgPerParticipantPerDay float64
}

// HasParticipants reports whether per-participant averages are defined.
func (p PeriodStats) HasParticipants() bool {
	return p.ActiveUsers > 0
}

// Comparison pairs two contiguous, equal length periods.
type Comparison struct {
	Days     int
	Current  PeriodStats
	Previous PeriodStats
}

// Horizon is a user's sum over one trailing horizon.
type Horizon struct {
	// Days is the horizon length.
	Days int

	// Sum is the user's total in the chat.
	Sum int64

	// AllChats is the user's total across all chats, when requested.
	AllChats int64
}

// Leaderboard is a ranked list of contributors.
type Leaderboard struct {
	Days    int
	Start   time.Time
	End     time.Time
	Entries []ledger.TopEntry
}

// Config contains aggregator configuration.
type Config struct {
	// Now overrides the clock. Default: time.Now.
	Now func() time.Time
}
