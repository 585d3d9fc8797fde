// Package ledger stores contribution records and answers window queries.
//
// The ledger is the only source of truth: every aggregate is recomputed
// from records on demand. Three backends implement the same contract:
//
//   - memory: process-local, used by tests and the console
//   - bolt: single file embedded store (go.etcd.io/bbolt)
//   - postgres: pooled relational store (github.com/jackc/pgx/v5)
//
// Record timestamps are assigned by the ledger, never by the caller, and are
// non-decreasing in insertion order. Windows are half-open: a record at t
// belongs to [start, end) when start <= t < end.
//
// Example usage:
//
//	l, err := ledger.Open(ctx, ledger.Config{Driver: ledger.DriverBolt, DBPath: "ysdb.db"}, log)
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//
//	if _, err := l.Insert(ctx, userID, chatID, 190); err != nil {
//	    return err
//	}
//	total, err := l.SumWindow(ctx, userID, chatID, now.Add(-24*time.Hour), now)
package ledger

import (
	"context"
	"time"
)

// Driver names a ledger backend.
type Driver string

const (
	// DriverMemory keeps records in process memory.
	DriverMemory Driver = "memory"

	// DriverBolt keeps records in a bbolt file.
	DriverBolt Driver = "bolt"

	// DriverPostgres keeps records in PostgreSQL.
	DriverPostgres Driver = "postgres"
)

// Ledger is the append-only store of contribution records.
//
// All methods are safe for concurrent use. Storage failures are returned as
// apperr.KindTransientStorage; an aggregate query that finds more than one
// row for its key fails with apperr.KindCorruptedState.
type Ledger interface {
	// EnsureUser registers a user if no row exists for id.
	//
	// An existing title is never updated.
	//
	// Returns true when the user was created by this call.
	EnsureUser(ctx context.Context, id int64, title string) (bool, error)

	// EnsureChat registers a chat if no row exists for id.
	//
	// Returns true when the chat was created by this call.
	EnsureChat(ctx context.Context, id int64, title string) (bool, error)

	// Insert appends one record stamped with the ledger clock.
	//
	// Parameters:
	//   - userID, chatID: Owner of the record
	//   - amount: Contribution, must be >= 1
	//
	// Returns the stored record.
	Insert(ctx context.Context, userID, chatID, amount int64) (Record, error)

	// LastN returns up to n records of (userID, chatID), most recent first.
	LastN(ctx context.Context, userID, chatID int64, n int) ([]Record, error)

	// DeleteMostRecent removes up to n most recent records of (userID, chatID).
	//
	// Deleting from an empty history is a no-op, not an error.
	//
	// Returns the number of records removed.
	DeleteMostRecent(ctx context.Context, userID, chatID int64, n int) (int, error)

	// SumWindow sums the amounts of (userID, chatID) within [start, end).
	//
	// Returns 0 when no record falls in the window.
	SumWindow(ctx context.Context, userID, chatID int64, start, end time.Time) (int64, error)

	// UserSumWindow sums the amounts of userID across all chats within [start, end).
	UserSumWindow(ctx context.Context, userID int64, start, end time.Time) (int64, error)

	// ChatSumWindow sums the amounts of all users of chatID within [start, end).
	ChatSumWindow(ctx context.Context, chatID int64, start, end time.Time) (int64, error)

	// ActiveUserCount counts distinct users with at least one record in
	// chatID within [start, end).
	ActiveUserCount(ctx context.Context, chatID int64, start, end time.Time) (int, error)

	// TopByWindow ranks the users of chatID by summed amount within [start, end).
	//
	// Entries are sorted by amount descending. Equal amounts keep the order
	// in which users first appear in the window.
	TopByWindow(ctx context.Context, chatID int64, start, end time.Time) ([]TopEntry, error)

	// Close releases the underlying storage.
	Close() error
}

// Record is one contribution.
//
// Invariant: Amount >= 1.
type Record struct {
	UserID    int64
	ChatID    int64
	Timestamp time.Time
	Amount    int64
}

// TopEntry is one leaderboard row.
type TopEntry struct {
	UserID int64
	Title  string
	Amount int64
}

// Config contains ledger configuration.
type Config struct {
	// Driver selects the backend. Default: memory.
	Driver Driver

	// DBPath is the bbolt file for DriverBolt.
	DBPath string

	// DatabaseURL is the PostgreSQL connection string for DriverPostgres.
	DatabaseURL string

	// MaxConns bounds the PostgreSQL pool. Default: 20.
	MaxConns int32

	// MinConns is the number of idle PostgreSQL connections kept open. Default: 5.
	MinConns int32

	// ConnectAttempts is how many times to try reaching PostgreSQL at startup. Default: 5.
	ConnectAttempts int

	// Timeout bounds opening the bbolt file and each connect attempt. Default: 5s.
	Timeout time.Duration

	// Now overrides the clock used to stamp records. Default: time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 20
	}
	if c.MinConns <= 0 {
		c.MinConns = 5
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
