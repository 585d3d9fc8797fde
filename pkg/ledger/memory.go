package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/0xmhha/ysdb/pkg/logger"
)

// memoryLedger implements Ledger in process memory.
//
// Records are kept in insertion order, which is also timestamp order.
type memoryLedger struct {
	mu      sync.RWMutex
	clock   *Clock
	logger  logger.Logger
	users   map[int64]string
	chats   map[int64]string
	records []Record
}

// NewMemory creates an empty in-memory ledger.
func NewMemory(cfg Config, log logger.Logger) Ledger {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}

	log.Info("ledger initialized", "driver", DriverMemory)

	return &memoryLedger{
		clock:  NewClock(cfg.Now),
		logger: log,
		users:  make(map[int64]string),
		chats:  make(map[int64]string),
	}
}

// EnsureUser implements Ledger.EnsureUser.
func (m *memoryLedger) EnsureUser(_ context.Context, id int64, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; ok {
		return false, nil
	}
	m.users[id] = title
	return true, nil
}

// EnsureChat implements Ledger.EnsureChat.
func (m *memoryLedger) EnsureChat(_ context.Context, id int64, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chats[id]; ok {
		return false, nil
	}
	m.chats[id] = title
	return true, nil
}

// Insert implements Ledger.Insert.
func (m *memoryLedger) Insert(_ context.Context, userID, chatID, amount int64) (Record, error) {
	if err := checkAmount("ledger.Insert", amount); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := Record{
		UserID:    userID,
		ChatID:    chatID,
		Timestamp: m.clock.Next(),
		Amount:    amount,
	}
	m.records = append(m.records, rec)

	m.logger.Debug("record inserted",
		"user_id", userID,
		"chat_id", chatID,
		"amount", amount)

	return rec, nil
}

// LastN implements Ledger.LastN.
func (m *memoryLedger) LastN(_ context.Context, userID, chatID int64, n int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		if r := m.records[i]; r.UserID == userID && r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteMostRecent implements Ledger.DeleteMostRecent.
func (m *memoryLedger) DeleteMostRecent(_ context.Context, userID, chatID int64, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[int]struct{}, n)
	for i := len(m.records) - 1; i >= 0 && len(drop) < n; i-- {
		if r := m.records[i]; r.UserID == userID && r.ChatID == chatID {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	kept := m.records[:0]
	for i, r := range m.records {
		if _, ok := drop[i]; !ok {
			kept = append(kept, r)
		}
	}
	m.records = kept

	m.logger.Info("records deleted",
		"user_id", userID,
		"chat_id", chatID,
		"count", len(drop))

	return len(drop), nil
}

// SumWindow implements Ledger.SumWindow.
func (m *memoryLedger) SumWindow(_ context.Context, userID, chatID int64, start, end time.Time) (int64, error) {
	return m.sum(start, end, func(r Record) bool {
		return r.UserID == userID && r.ChatID == chatID
	}), nil
}

// UserSumWindow implements Ledger.UserSumWindow.
func (m *memoryLedger) UserSumWindow(_ context.Context, userID int64, start, end time.Time) (int64, error) {
	return m.sum(start, end, func(r Record) bool {
		return r.UserID == userID
	}), nil
}

// ChatSumWindow implements Ledger.ChatSumWindow.
func (m *memoryLedger) ChatSumWindow(_ context.Context, chatID int64, start, end time.Time) (int64, error) {
	return m.sum(start, end, func(r Record) bool {
		return r.ChatID == chatID
	}), nil
}

// ActiveUserCount implements Ledger.ActiveUserCount.
func (m *memoryLedger) ActiveUserCount(_ context.Context, chatID int64, start, end time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, r := range m.records {
		if r.ChatID == chatID && inWindow(r.Timestamp, start, end) {
			seen[r.UserID] = struct{}{}
		}
	}
	return len(seen), nil
}

// TopByWindow implements Ledger.TopByWindow.
func (m *memoryLedger) TopByWindow(_ context.Context, chatID int64, start, end time.Time) ([]TopEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc := newTopAccumulator()
	for _, r := range m.records {
		if r.ChatID == chatID && inWindow(r.Timestamp, start, end) {
			acc.add(r.UserID, r.Amount)
		}
	}

	return acc.result(func(userID int64) string {
		return DisplayTitle(userID, m.users[userID])
	}), nil
}

// Close implements Ledger.Close.
func (m *memoryLedger) Close() error {
	return nil
}

func (m *memoryLedger) sum(start, end time.Time, match func(Record) bool) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, r := range m.records {
		if match(r) && inWindow(r.Timestamp, start, end) {
			total += r.Amount
		}
	}
	return total
}
