package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/logger"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "default is memory", cfg: Config{}},
		{name: "memory", cfg: Config{Driver: DriverMemory}},
		{name: "bolt", cfg: Config{Driver: DriverBolt, DBPath: filepath.Join(t.TempDir(), "l.db")}},
		{name: "bolt without path", cfg: Config{Driver: DriverBolt}, wantErr: ErrMissingDBPath},
		{name: "postgres without url", cfg: Config{Driver: DriverPostgres}, wantErr: ErrMissingDatabaseURL},
		{name: "unknown", cfg: Config{Driver: "redis"}, wantErr: ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Open(ctx, tt.cfg, logger.Noop())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, l.Close())
		})
	}
}

func TestSingleSum(t *testing.T) {
	sum, err := singleSum("op", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	sum, err = singleSum("op", []int64{42})
	require.NoError(t, err)
	assert.Equal(t, int64(42), sum)

	_, err = singleSum("ledger.SumWindow", []int64{1, 2})
	assert.Equal(t, apperr.KindCorruptedState, apperr.KindOf(err))
	assert.ErrorIs(t, err, ErrDuplicateAggregate)
	assert.False(t, apperr.IsUserFacing(err))
}

func TestClockNeverGoesBackwards(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return now })

	first := c.Next()
	now = now.Add(-time.Minute)
	second := c.Next()
	assert.True(t, second.Equal(first))

	now = now.Add(2 * time.Minute)
	third := c.Next()
	assert.True(t, third.After(first))

	c.Observe(third.Add(time.Hour))
	assert.True(t, c.Next().Equal(third.Add(time.Hour)))
}

func TestClockTruncatesToMicroseconds(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 1234567, time.UTC)
	c := NewClock(func() time.Time { return at })
	assert.Equal(t, 1234000, c.Next().Nanosecond())
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name       string
		id         int64
		candidates []string
		want       string
	}{
		{"full name", 1, []string{"Ada Lovelace", "ada"}, "Ada Lovelace"},
		{"short name when full is empty", 1, []string{"", "ada"}, "ada"},
		{"short name when full is too short", 1, []string{"A", "ada"}, "ada"},
		{"trimmed", 1, []string{"  Bo  "}, "Bo"},
		{"cyrillic", 1, []string{"Юля"}, "Юля"},
		{"fallback", 42, []string{"", "x"}, "@42"},
		{"no candidates", -100, nil, "@-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayTitle(tt.id, tt.candidates...))
		})
	}
}
