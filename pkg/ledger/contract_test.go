package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ysdb/pkg/apperr"
)

// manualClock is a clock advanced by tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// factory builds an empty ledger reading time from now.
type factory func(t *testing.T, now func() time.Time) Ledger

// runContract exercises the behavior every backend must share.
func runContract(t *testing.T, newLedger factory) {
	t.Run("EnsureIsInsertOnly", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t, time.Now)

		created, err := l.EnsureUser(ctx, 1, "Alice")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = l.EnsureUser(ctx, 1, "Renamed")
		require.NoError(t, err)
		assert.False(t, created)

		created, err = l.EnsureChat(ctx, 10, "Writers")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = l.EnsureChat(ctx, 10, "Other")
		require.NoError(t, err)
		assert.False(t, created)

		_, err = l.Insert(ctx, 1, 10, 5)
		require.NoError(t, err)

		top, err := l.TopByWindow(ctx, 10, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "Alice", top[0].Title, "title must not be updated")
	})

	t.Run("InsertRejectsNonPositive", func(t *testing.T) {
		ctx := context.Background()
		l := newLedger(t, time.Now)
		seed(t, l, []int64{1}, []int64{1})

		for _, amount := range []int64{0, -1} {
			_, err := l.Insert(ctx, 1, 1, amount)
			assert.Equal(t, apperr.KindRange, apperr.KindOf(err), "amount %d", amount)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("LastNAndSumScenario", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		seed(t, l, []int64{1}, []int64{1})
		start := clock.Now()

		for _, amount := range []int64{100, 200, 5000} {
			_, err := l.Insert(ctx, 1, 1, amount)
			require.NoError(t, err)
			clock.Advance(time.Minute)
		}

		last, err := l.LastN(ctx, 1, 1, 2)
		require.NoError(t, err)
		require.Len(t, last, 2)
		assert.Equal(t, int64(5000), last[0].Amount)
		assert.Equal(t, int64(200), last[1].Amount)
		assert.True(t, last[0].Timestamp.After(last[1].Timestamp))
		assert.True(t, last[0].Timestamp.Equal(start.Add(2*time.Minute)))

		sum, err := l.SumWindow(ctx, 1, 1, start, clock.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(5300), sum)

		all, err := l.LastN(ctx, 1, 1, 10)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		none, err := l.LastN(ctx, 1, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("WindowIsHalfOpen", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		seed(t, l, []int64{1}, []int64{1})
		t0 := clock.Now()

		for _, amount := range []int64{1, 10, 100} {
			_, err := l.Insert(ctx, 1, 1, amount)
			require.NoError(t, err)
			clock.Advance(time.Hour)
		}

		tests := []struct {
			name       string
			start, end time.Time
			want       int64
		}{
			{"all", t0, t0.Add(3 * time.Hour), 111},
			{"start inclusive", t0.Add(time.Hour), t0.Add(3 * time.Hour), 110},
			{"end exclusive", t0, t0.Add(2 * time.Hour), 11},
			{"single", t0.Add(time.Hour), t0.Add(2 * time.Hour), 10},
			{"empty", t0.Add(5 * time.Hour), t0.Add(6 * time.Hour), 0},
			{"inverted", t0.Add(2 * time.Hour), t0, 0},
		}

		for _, tt := range tests {
			sum, err := l.SumWindow(ctx, 1, 1, tt.start, tt.end)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, sum, tt.name)
		}

		// Inserting after the window leaves it unchanged.
		_, err := l.Insert(ctx, 1, 1, 1000)
		require.NoError(t, err)
		sum, err := l.SumWindow(ctx, 1, 1, t0, t0.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(111), sum)
	})

	t.Run("DeleteMostRecent", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		seed(t, l, []int64{1, 2}, []int64{1})

		n, err := l.DeleteMostRecent(ctx, 1, 1, 1)
		require.NoError(t, err, "delete on empty history is a no-op")
		assert.Equal(t, 0, n)

		for _, amount := range []int64{100, 200, 300} {
			_, err := l.Insert(ctx, 1, 1, amount)
			require.NoError(t, err)
			clock.Advance(time.Second)
		}
		_, err = l.Insert(ctx, 2, 1, 999)
		require.NoError(t, err)

		n, err = l.DeleteMostRecent(ctx, 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		last, err := l.LastN(ctx, 1, 1, 5)
		require.NoError(t, err)
		require.Len(t, last, 2)
		assert.Equal(t, int64(200), last[0].Amount)

		n, err = l.DeleteMostRecent(ctx, 1, 1, 5)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		last, err = l.LastN(ctx, 1, 1, 5)
		require.NoError(t, err)
		assert.Empty(t, last)

		other, err := l.LastN(ctx, 2, 1, 5)
		require.NoError(t, err)
		assert.Len(t, other, 1, "other users are untouched")
	})

	t.Run("ChatAggregates", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		seed(t, l, []int64{1, 2, 3}, []int64{1, 2})
		t0 := clock.Now()

		inserts := []struct{ user, chat, amount int64 }{
			{1, 1, 400},
			{2, 1, 500},
			{1, 1, 600},
			{3, 2, 7000},
			{1, 2, 50},
		}
		for _, in := range inserts {
			_, err := l.Insert(ctx, in.user, in.chat, in.amount)
			require.NoError(t, err)
			clock.Advance(time.Minute)
		}
		end := clock.Now()

		sum, err := l.ChatSumWindow(ctx, 1, t0, end)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), sum)

		active, err := l.ActiveUserCount(ctx, 1, t0, end)
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		active, err = l.ActiveUserCount(ctx, 2, t0, end)
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		active, err = l.ActiveUserCount(ctx, 1, end, end.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, active)

		userSum, err := l.UserSumWindow(ctx, 1, t0, end)
		require.NoError(t, err)
		assert.Equal(t, int64(1050), userSum, "user total spans chats")

		pairSum, err := l.SumWindow(ctx, 1, 1, t0, end)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), pairSum)
	})

	t.Run("TopByWindowOrdering", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		titles := map[int64]string{1: "Alice", 2: "", 3: "Carol", 4: "Dave"}
		for id, title := range titles {
			_, err := l.EnsureUser(ctx, id, title)
			require.NoError(t, err)
		}
		seed(t, l, nil, []int64{1, 2})
		t0 := clock.Now()

		inserts := []struct{ user, chat, amount int64 }{
			{2, 1, 50},
			{1, 1, 100},
			{3, 1, 100},
			{2, 1, 50},
			{4, 2, 9000},
			{4, 1, 500},
		}
		for _, in := range inserts {
			_, err := l.Insert(ctx, in.user, in.chat, in.amount)
			require.NoError(t, err)
			clock.Advance(time.Second)
		}

		top, err := l.TopByWindow(ctx, 1, t0, clock.Now())
		require.NoError(t, err)

		want := []TopEntry{
			{UserID: 4, Title: "Dave", Amount: 500},
			{UserID: 2, Title: "@2", Amount: 100},
			{UserID: 1, Title: "Alice", Amount: 100},
			{UserID: 3, Title: "Carol", Amount: 100},
		}
		assert.Equal(t, want, top)

		empty, err := l.TopByWindow(ctx, 1, clock.Now(), clock.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("StampsNeverGoBackwards", func(t *testing.T) {
		ctx := context.Background()
		clock := newManualClock()
		l := newLedger(t, clock.Now)
		seed(t, l, []int64{1}, []int64{1})

		first, err := l.Insert(ctx, 1, 1, 1)
		require.NoError(t, err)

		clock.Advance(-time.Hour)
		second, err := l.Insert(ctx, 1, 1, 2)
		require.NoError(t, err)

		assert.False(t, second.Timestamp.Before(first.Timestamp))

		last, err := l.LastN(ctx, 1, 1, 1)
		require.NoError(t, err)
		require.Len(t, last, 1)
		assert.Equal(t, int64(2), last[0].Amount, "most recent insert is listed first")
	})
}

// seed registers users and chats so backends with foreign keys accept inserts.
func seed(t *testing.T, l Ledger, users, chats []int64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range users {
		_, err := l.EnsureUser(ctx, id, "")
		require.NoError(t, err)
	}
	for _, id := range chats {
		_, err := l.EnsureChat(ctx, id, "")
		require.NoError(t, err)
	}
}
