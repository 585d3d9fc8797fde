package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/logger"
)

// postgresLedger implements Ledger on a pgx connection pool.
type postgresLedger struct {
	pool   *pgxpool.Pool
	clock  *Clock
	logger logger.Logger

	// insertMu keeps stamp order equal to commit order.
	insertMu sync.Mutex
}

// Connect opens a pgx pool sized by cfg, retrying while the server is not
// reachable yet.
func Connect(ctx context.Context, cfg Config, log logger.Logger) (*pgxpool.Pool, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		pool, err := ping(ctx, poolCfg, cfg.Timeout)
		if err == nil {
			log.Info("database connected",
				"attempt", attempt,
				"max_conns", poolCfg.MaxConns,
				"min_conns", poolCfg.MinConns)
			return pool, nil
		}
		lastErr = err

		log.Warn("database connect attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.ConnectAttempts,
			"error", err)

		if attempt == cfg.ConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

func ping(ctx context.Context, poolCfg *pgxpool.Config, timeout time.Duration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewPostgres connects to PostgreSQL, applies migrations and returns the ledger.
func NewPostgres(ctx context.Context, cfg Config, log logger.Logger) (Ledger, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}

	pool, err := Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if _, err := Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	clock := NewClock(cfg.Now)

	var last *time.Time
	if err := pool.QueryRow(ctx, "SELECT MAX(created_at) FROM contribution_records").Scan(&last); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to read last stamp: %w", err)
	}
	if last != nil {
		clock.Observe(*last)
	}

	log.Info("ledger initialized", "driver", DriverPostgres)

	return &postgresLedger{
		pool:   pool,
		clock:  clock,
		logger: log,
	}, nil
}

// withConn runs fn on a pooled connection that is released on every path.
// Errors are classified as transient storage failures unless fn already
// classified them.
func (p *postgresLedger) withConn(ctx context.Context, op string, fn func(conn *pgxpool.Conn) error) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return apperr.Storage(op, fmt.Errorf("failed to acquire connection: %w", err))
	}
	defer conn.Release()

	return apperr.Storage(op, fn(conn))
}

// EnsureUser implements Ledger.EnsureUser.
func (p *postgresLedger) EnsureUser(ctx context.Context, id int64, title string) (bool, error) {
	return p.ensure(ctx, "ledger.EnsureUser",
		"INSERT INTO users (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", id, title)
}

// EnsureChat implements Ledger.EnsureChat.
func (p *postgresLedger) EnsureChat(ctx context.Context, id int64, title string) (bool, error) {
	return p.ensure(ctx, "ledger.EnsureChat",
		"INSERT INTO chats (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", id, title)
}

func (p *postgresLedger) ensure(ctx context.Context, op, query string, id int64, title string) (bool, error) {
	created := false
	err := p.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, query, id, title)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() == 1
		return nil
	})
	return created, err
}

// Insert implements Ledger.Insert.
func (p *postgresLedger) Insert(ctx context.Context, userID, chatID, amount int64) (Record, error) {
	const op = "ledger.Insert"
	if err := checkAmount(op, amount); err != nil {
		return Record{}, err
	}

	var rec Record
	err := p.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		p.insertMu.Lock()
		defer p.insertMu.Unlock()

		ts := p.clock.Next()
		if _, err := conn.Exec(ctx, `
			INSERT INTO contribution_records (user_id, chat_id, created_at, amount)
			VALUES ($1, $2, $3, $4)
		`, userID, chatID, ts, amount); err != nil {
			return err
		}

		rec = Record{UserID: userID, ChatID: chatID, Timestamp: ts, Amount: amount}
		return nil
	})
	if err != nil {
		return Record{}, err
	}

	p.logger.Debug("record inserted",
		"user_id", userID,
		"chat_id", chatID,
		"amount", amount)

	return rec, nil
}

// LastN implements Ledger.LastN.
func (p *postgresLedger) LastN(ctx context.Context, userID, chatID int64, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	var out []Record
	err := p.withConn(ctx, "ledger.LastN", func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT created_at, amount
			FROM contribution_records
			WHERE user_id = $1 AND chat_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`, userID, chatID, n)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec := Record{UserID: userID, ChatID: chatID}
			if err := rows.Scan(&rec.Timestamp, &rec.Amount); err != nil {
				return err
			}
			rec.Timestamp = rec.Timestamp.UTC()
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

// DeleteMostRecent implements Ledger.DeleteMostRecent.
func (p *postgresLedger) DeleteMostRecent(ctx context.Context, userID, chatID int64, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	deleted := 0
	err := p.withConn(ctx, "ledger.DeleteMostRecent", func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `
			DELETE FROM contribution_records
			WHERE id IN (
				SELECT id FROM contribution_records
				WHERE user_id = $1 AND chat_id = $2
				ORDER BY created_at DESC, id DESC
				LIMIT $3
			)
		`, userID, chatID, n)
		if err != nil {
			return err
		}
		deleted = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		p.logger.Info("records deleted",
			"user_id", userID,
			"chat_id", chatID,
			"count", deleted)
	}
	return deleted, nil
}

// SumWindow implements Ledger.SumWindow.
func (p *postgresLedger) SumWindow(ctx context.Context, userID, chatID int64, start, end time.Time) (int64, error) {
	return p.groupedSum(ctx, "ledger.SumWindow", `
		SELECT SUM(amount)::BIGINT
		FROM contribution_records
		WHERE user_id = $1 AND chat_id = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY user_id, chat_id
	`, userID, chatID, start, end)
}

// UserSumWindow implements Ledger.UserSumWindow.
func (p *postgresLedger) UserSumWindow(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	return p.groupedSum(ctx, "ledger.UserSumWindow", `
		SELECT SUM(amount)::BIGINT
		FROM contribution_records
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY user_id
	`, userID, start, end)
}

// ChatSumWindow implements Ledger.ChatSumWindow.
func (p *postgresLedger) ChatSumWindow(ctx context.Context, chatID int64, start, end time.Time) (int64, error) {
	return p.groupedSum(ctx, "ledger.ChatSumWindow", `
		SELECT SUM(amount)::BIGINT
		FROM contribution_records
		WHERE chat_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY chat_id
	`, chatID, start, end)
}

// groupedSum runs a sum query grouped by its key and collapses the rows.
func (p *postgresLedger) groupedSum(ctx context.Context, op, query string, args ...any) (int64, error) {
	var total int64
	err := p.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		sums, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}
		total, err = singleSum(op, sums)
		return err
	})
	return total, err
}

// ActiveUserCount implements Ledger.ActiveUserCount.
func (p *postgresLedger) ActiveUserCount(ctx context.Context, chatID int64, start, end time.Time) (int, error) {
	var count int
	err := p.withConn(ctx, "ledger.ActiveUserCount", func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT COUNT(DISTINCT user_id)
			FROM contribution_records
			WHERE chat_id = $1 AND created_at >= $2 AND created_at < $3
		`, chatID, start, end).Scan(&count)
	})
	return count, err
}

// TopByWindow implements Ledger.TopByWindow.
func (p *postgresLedger) TopByWindow(ctx context.Context, chatID int64, start, end time.Time) ([]TopEntry, error) {
	const op = "ledger.TopByWindow"

	var entries []TopEntry
	err := p.withConn(ctx, op, func(conn *pgxpool.Conn) error {
		// MIN(r.id) is the first appearance of the user in the window.
		rows, err := conn.Query(ctx, `
			SELECT r.user_id, COALESCE(u.title, ''), SUM(r.amount)::BIGINT AS total, MIN(r.id) AS first_seen
			FROM contribution_records r
			LEFT JOIN users u ON u.id = r.user_id
			WHERE r.chat_id = $1 AND r.created_at >= $2 AND r.created_at < $3
			GROUP BY r.user_id, u.title
			ORDER BY total DESC, first_seen ASC
		`, chatID, start, end)
		if err != nil {
			return err
		}
		defer rows.Close()

		seen := make(map[int64]struct{})
		for rows.Next() {
			var (
				entry     TopEntry
				title     string
				firstSeen int64
			)
			if err := rows.Scan(&entry.UserID, &title, &entry.Amount, &firstSeen); err != nil {
				return err
			}
			if _, dup := seen[entry.UserID]; dup {
				return &apperr.Error{
					Kind: apperr.KindCorruptedState,
					Op:   op,
					Msg:  fmt.Sprintf("user %d ranked twice", entry.UserID),
					Err:  ErrDuplicateAggregate,
				}
			}
			seen[entry.UserID] = struct{}{}

			entry.Title = DisplayTitle(entry.UserID, title)
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close implements Ledger.Close.
func (p *postgresLedger) Close() error {
	p.pool.Close()
	return nil
}
