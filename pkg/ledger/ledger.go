package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/logger"
)

// Open creates the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config, log logger.Logger) (Ledger, error) {
	cfg = cfg.withDefaults()

	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(cfg, log), nil
	case DriverBolt:
		return NewBolt(cfg, log)
	case DriverPostgres:
		return NewPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// checkAmount enforces the record invariant.
func checkAmount(op string, amount int64) error {
	if amount < 1 {
		return &apperr.Error{Kind: apperr.KindRange, Op: op, Msg: ErrInvalidAmount.Error(), Err: ErrInvalidAmount}
	}
	return nil
}

// inWindow reports whether t lies in [start, end).
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// singleSum collapses the rows of a grouped sum query keyed by one group.
//
// No rows means an empty window. More than one row means the grouping is
// broken and the result cannot be trusted.
func singleSum(op string, sums []int64) (int64, error) {
	switch len(sums) {
	case 0:
		return 0, nil
	case 1:
		return sums[0], nil
	default:
		return 0, &apperr.Error{
			Kind: apperr.KindCorruptedState,
			Op:   op,
			Msg:  fmt.Sprintf("%d aggregate rows for one key", len(sums)),
			Err:  ErrDuplicateAggregate,
		}
	}
}

// topAccumulator builds a leaderboard from records visited in scan order.
type topAccumulator struct {
	index   map[int64]int
	entries []TopEntry
}

func newTopAccumulator() *topAccumulator {
	return &topAccumulator{index: make(map[int64]int)}
}

// add credits amount to userID, remembering first-seen order.
func (a *topAccumulator) add(userID, amount int64) {
	i, ok := a.index[userID]
	if !ok {
		i = len(a.entries)
		a.index[userID] = i
		a.entries = append(a.entries, TopEntry{UserID: userID})
	}
	a.entries[i].Amount += amount
}

// result sorts by amount descending, stable on first-seen order, and
// resolves titles.
func (a *topAccumulator) result(title func(userID int64) string) []TopEntry {
	sort.SliceStable(a.entries, func(i, j int) bool {
		return a.entries[i].Amount > a.entries[j].Amount
	})
	for i := range a.entries {
		a.entries[i].Title = title(a.entries[i].UserID)
	}
	return a.entries
}
