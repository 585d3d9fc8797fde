package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/ledger"
	"github.com/0xmhha/ysdb/pkg/logger"
)

// testEnv wires a memory ledger and an aggregator to one movable clock.
type testEnv struct {
	now    time.Time
	ledger ledger.Ledger
	agg    Aggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }
	env.ledger = ledger.NewMemory(ledger.Config{Now: clock}, logger.Noop())
	env.agg = New(env.ledger, Config{Now: clock})
	return env
}

// insertAt records amount as if it happened ago before the env's now.
// Calls must go oldest first since ledger stamps never move backwards.
func (e *testEnv) insertAt(t *testing.T, ago time.Duration, userID, chatID, amount int64) {
	t.Helper()

	saved := e.now
	e.now = saved.Add(-ago)
	_, err := e.ledger.Insert(context.Background(), userID, chatID, amount)
	e.now = saved
	require.NoError(t, err)
}

func TestCompareScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Two users with 1000 and 500 in the last seven days.
	env.insertAt(t, 6*Day, 1, 1, 400)
	env.insertAt(t, 5*Day, 2, 1, 500)
	env.insertAt(t, 2*Day, 1, 1, 600)
	// A different chat never leaks in.
	env.insertAt(t, Day, 3, 2, 9000)

	cmp, err := env.agg.Compare(ctx, 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, cmp.Days)
	assert.Equal(t, 2, cmp.Current.ActiveUsers)
	assert.Equal(t, int64(1500), cmp.Current.Total)
	assert.InDelta(t, 1500.0/7, cmp.Current.AvgPerDay, 1e-9)
	assert.InDelta(t, 750.0, cmp.Current.AvgPerParticipant, 1e-9)
	assert.InDelta(t, 750.0/7, cmp.Current.AvgPerParticipantPerDay, 1e-9)

	assert.Equal(t, int64(0), cmp.Previous.Total)
	assert.False(t, cmp.Previous.HasParticipants())
	assert.Zero(t, cmp.Previous.AvgPerParticipant)
}

func TestCompareWindowsAreContiguous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Older than both periods.
	env.insertAt(t, 6*Day+time.Second, 4, 1, 80)
	// Exactly at the previous period start.
	env.insertAt(t, 6*Day, 3, 1, 40)
	// Inside the previous period.
	env.insertAt(t, 4*Day, 2, 1, 20)
	// Exactly at the boundary: the current period starts here.
	env.insertAt(t, 3*Day, 1, 1, 10)
	// Inside the current period.
	env.insertAt(t, 3*Day-time.Microsecond, 5, 1, 5)
	// Stamped at the current instant.
	env.insertAt(t, 0, 1, 1, 1)

	cmp, err := env.agg.Compare(ctx, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(16), cmp.Current.Total)
	assert.Equal(t, 2, cmp.Current.ActiveUsers)
	assert.Equal(t, int64(60), cmp.Previous.Total)
	assert.Equal(t, 2, cmp.Previous.ActiveUsers)

	assert.True(t, cmp.Previous.End.Equal(cmp.Current.Start))
	assert.Equal(t, 3*Day, cmp.Previous.End.Sub(cmp.Previous.Start))
	assert.True(t, cmp.Current.Start.Equal(env.now.Add(-3*Day)))
}

func TestUserHorizons(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.insertAt(t, 100*Day, 1, 1, 800)
	env.insertAt(t, 20*Day, 1, 1, 400)
	env.insertAt(t, 3*Day, 1, 1, 200)
	env.insertAt(t, 2*Day, 1, 2, 5000)
	env.insertAt(t, time.Hour, 1, 1, 100)

	got, err := env.agg.UserHorizons(ctx, 1, 1, []int{1, 7, 30, 3600}, false)
	require.NoError(t, err)

	want := []Horizon{
		{Days: 1, Sum: 100},
		{Days: 7, Sum: 300},
		{Days: 30, Sum: 700},
		{Days: 3600, Sum: 1500},
	}
	assert.Equal(t, want, got)

	got, err = env.agg.UserHorizons(ctx, 1, 1, []int{1, 7}, true)
	require.NoError(t, err)
	assert.Equal(t, []Horizon{
		{Days: 1, Sum: 100, AllChats: 100},
		{Days: 7, Sum: 300, AllChats: 5300},
	}, got)

	_, err = env.agg.UserHorizons(ctx, 1, 1, []int{0}, false)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestTop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for id, title := range map[int64]string{1: "Alice", 2: "Bob"} {
		_, err := env.ledger.EnsureUser(ctx, id, title)
		require.NoError(t, err)
	}

	env.insertAt(t, 10*Day, 2, 1, 10000)
	env.insertAt(t, 2*Day, 1, 1, 300)
	env.insertAt(t, Day, 2, 1, 200)

	board, err := env.agg.Top(ctx, 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, board.Days)
	assert.Equal(t, []ledger.TopEntry{
		{UserID: 1, Title: "Alice", Amount: 300},
		{UserID: 2, Title: "Bob", Amount: 200},
	}, board.Entries)

	_, err = env.agg.Top(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestTrailingSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.insertAt(t, 25*time.Hour, 1, 1, 90000)
	env.insertAt(t, 23*time.Hour, 1, 1, 60000)
	env.insertAt(t, time.Minute, 1, 1, 50000)

	sum, err := env.agg.TrailingSum(ctx, 1, 1, Day)
	require.NoError(t, err)
	assert.Equal(t, int64(110000), sum)
}

// failingLedger fails every query with a storage error.
type failingLedger struct {
	ledger.Ledger
}

func (failingLedger) ChatSumWindow(context.Context, int64, time.Time, time.Time) (int64, error) {
	return 0, apperr.Storage("ledger.ChatSumWindow", errors.New("connection refused"))
}

func TestErrorsKeepTheirKind(t *testing.T) {
	agg := New(failingLedger{}, Config{})

	_, err := agg.Compare(context.Background(), 1, 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransientStorage, apperr.KindOf(err))
}
