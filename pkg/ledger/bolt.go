package ledger

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/logger"
)

// Bucket names.
var (
	bucketUsers   = []byte("users")   // user id -> title
	bucketChats   = []byte("chats")   // chat id -> title
	bucketRecords = []byte("records") // chat|ts|seq -> user|amount
	bucketByUser  = []byte("by_user") // user|chat|ts|seq -> amount (index)
	bucketMeta    = []byte("meta")    // bookkeeping

	keyLastStamp = []byte("last_ts")
)

// Key layout. All integers are big-endian so byte order matches numeric
// order for non-negative values. Ids are only ever used as prefixes, so
// negative chat ids are fine.
const (
	idLen        = 8
	recordKeyLen = idLen * 3 // chat | ts | seq
	indexKeyLen  = idLen * 4 // user | chat | ts | seq
)

// boltLedger implements Ledger on a bbolt file.
type boltLedger struct {
	db     *bolt.DB
	clock  *Clock
	logger logger.Logger
}

// NewBolt opens or creates the bbolt ledger at cfg.DBPath.
//
// Returns:
//   - Configured Ledger
//   - Error if the database cannot be opened
func NewBolt(cfg Config, log logger.Logger) (Ledger, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}
	if cfg.DBPath == "" {
		return nil, ErrMissingDBPath
	}

	dbPath := expandHome(cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	clock := NewClock(cfg.Now)

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketChats, bucketRecords, bucketByUser, bucketMeta} {
			if _, createErr := tx.CreateBucketIfNotExists(name); createErr != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, createErr)
			}
		}
		if v := tx.Bucket(bucketMeta).Get(keyLastStamp); len(v) == idLen {
			clock.Observe(decodeStamp(v))
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Info("ledger initialized", "driver", DriverBolt, "db_path", dbPath)

	return &boltLedger{
		db:     db,
		clock:  clock,
		logger: log,
	}, nil
}

// EnsureUser implements Ledger.EnsureUser.
func (b *boltLedger) EnsureUser(_ context.Context, id int64, title string) (bool, error) {
	return b.ensure("ledger.EnsureUser", bucketUsers, id, title)
}

// EnsureChat implements Ledger.EnsureChat.
func (b *boltLedger) EnsureChat(_ context.Context, id int64, title string) (bool, error) {
	return b.ensure("ledger.EnsureChat", bucketChats, id, title)
}

func (b *boltLedger) ensure(op string, bucket []byte, id int64, title string) (bool, error) {
	created := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucket)
		key := encodeID(id)
		if bkt.Get(key) != nil {
			return nil
		}
		created = true
		return bkt.Put(key, []byte(title))
	})
	if err != nil {
		return false, apperr.Storage(op, err)
	}
	return created, nil
}

// Insert implements Ledger.Insert.
func (b *boltLedger) Insert(_ context.Context, userID, chatID, amount int64) (Record, error) {
	const op = "ledger.Insert"
	if err := checkAmount(op, amount); err != nil {
		return Record{}, err
	}

	var rec Record
	err := b.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)

		seq, err := records.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		// Stamping inside the write transaction keeps stamps ordered like commits.
		ts := b.clock.Next()

		if err := records.Put(recordKey(chatID, ts, seq), recordValue(userID, amount)); err != nil {
			return fmt.Errorf("failed to store record: %w", err)
		}
		if err := tx.Bucket(bucketByUser).Put(indexKey(userID, chatID, ts, seq), encodeID(amount)); err != nil {
			return fmt.Errorf("failed to store index: %w", err)
		}
		if err := tx.Bucket(bucketMeta).Put(keyLastStamp, encodeStamp(ts)); err != nil {
			return fmt.Errorf("failed to store last stamp: %w", err)
		}

		rec = Record{UserID: userID, ChatID: chatID, Timestamp: ts, Amount: amount}
		return nil
	})
	if err != nil {
		return Record{}, apperr.Storage(op, err)
	}

	b.logger.Debug("record inserted",
		"user_id", userID,
		"chat_id", chatID,
		"amount", amount)

	return rec, nil
}

// LastN implements Ledger.LastN.
func (b *boltLedger) LastN(_ context.Context, userID, chatID int64, n int) ([]Record, error) {
	var out []Record
	err := b.db.View(func(tx *bolt.Tx) error {
		return scanNewest(tx.Bucket(bucketByUser).Cursor(), pairPrefix(userID, chatID), n, func(k, v []byte) {
			out = append(out, Record{
				UserID:    userID,
				ChatID:    chatID,
				Timestamp: decodeStamp(k[idLen*2 : idLen*3]),
				Amount:    decodeID(v),
			})
		})
	})
	if err != nil {
		return nil, apperr.Storage("ledger.LastN", err)
	}
	return out, nil
}

// DeleteMostRecent implements Ledger.DeleteMostRecent.
func (b *boltLedger) DeleteMostRecent(_ context.Context, userID, chatID int64, n int) (int, error) {
	deleted := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		byUser := tx.Bucket(bucketByUser)
		records := tx.Bucket(bucketRecords)

		// Collect first: deleting while iterating moves the cursor.
		var keys [][]byte
		if err := scanNewest(byUser.Cursor(), pairPrefix(userID, chatID), n, func(k, _ []byte) {
			keys = append(keys, append([]byte(nil), k...))
		}); err != nil {
			return err
		}

		for _, k := range keys {
			if err := byUser.Delete(k); err != nil {
				return fmt.Errorf("failed to delete index: %w", err)
			}
			// user|chat|ts|seq -> chat|ts|seq
			if err := records.Delete(k[idLen:]); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
		}
		deleted = len(keys)
		return nil
	})
	if err != nil {
		return 0, apperr.Storage("ledger.DeleteMostRecent", err)
	}

	if deleted > 0 {
		b.logger.Info("records deleted",
			"user_id", userID,
			"chat_id", chatID,
			"count", deleted)
	}
	return deleted, nil
}

// SumWindow implements Ledger.SumWindow.
func (b *boltLedger) SumWindow(_ context.Context, userID, chatID int64, start, end time.Time) (int64, error) {
	var total int64
	err := b.db.View(func(tx *bolt.Tx) error {
		prefix := pairPrefix(userID, chatID)
		c := tx.Bucket(bucketByUser).Cursor()
		for k, v := c.Seek(append(prefix, encodeStamp(start)...)); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !decodeStamp(k[idLen*2 : idLen*3]).Before(end) {
				break
			}
			total += decodeID(v)
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Storage("ledger.SumWindow", err)
	}
	return total, nil
}

// UserSumWindow implements Ledger.UserSumWindow.
func (b *boltLedger) UserSumWindow(_ context.Context, userID int64, start, end time.Time) (int64, error) {
	var total int64
	err := b.db.View(func(tx *bolt.Tx) error {
		// Stamps are only ordered within one chat, so scan every chat of the user.
		prefix := encodeID(userID)
		c := tx.Bucket(bucketByUser).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if inWindow(decodeStamp(k[idLen*2:idLen*3]), start, end) {
				total += decodeID(v)
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Storage("ledger.UserSumWindow", err)
	}
	return total, nil
}

// ChatSumWindow implements Ledger.ChatSumWindow.
func (b *boltLedger) ChatSumWindow(_ context.Context, chatID int64, start, end time.Time) (int64, error) {
	var total int64
	err := b.scanChat(chatID, start, end, func(_, amount int64) {
		total += amount
	})
	if err != nil {
		return 0, apperr.Storage("ledger.ChatSumWindow", err)
	}
	return total, nil
}

// ActiveUserCount implements Ledger.ActiveUserCount.
func (b *boltLedger) ActiveUserCount(_ context.Context, chatID int64, start, end time.Time) (int, error) {
	seen := make(map[int64]struct{})
	err := b.scanChat(chatID, start, end, func(userID, _ int64) {
		seen[userID] = struct{}{}
	})
	if err != nil {
		return 0, apperr.Storage("ledger.ActiveUserCount", err)
	}
	return len(seen), nil
}

// TopByWindow implements Ledger.TopByWindow.
func (b *boltLedger) TopByWindow(_ context.Context, chatID int64, start, end time.Time) ([]TopEntry, error) {
	acc := newTopAccumulator()
	var entries []TopEntry

	err := b.db.View(func(tx *bolt.Tx) error {
		if err := scanChatTx(tx, chatID, start, end, acc.add); err != nil {
			return err
		}
		users := tx.Bucket(bucketUsers)
		entries = acc.result(func(userID int64) string {
			return DisplayTitle(userID, string(users.Get(encodeID(userID))))
		})
		return nil
	})
	if err != nil {
		return nil, apperr.Storage("ledger.TopByWindow", err)
	}
	return entries, nil
}

// Close implements Ledger.Close.
func (b *boltLedger) Close() error {
	return b.db.Close()
}

// scanChat visits the records of chatID within [start, end) in stamp order.
func (b *boltLedger) scanChat(chatID int64, start, end time.Time, visit func(userID, amount int64)) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return scanChatTx(tx, chatID, start, end, visit)
	})
}

func scanChatTx(tx *bolt.Tx, chatID int64, start, end time.Time, visit func(userID, amount int64)) error {
	prefix := encodeID(chatID)
	c := tx.Bucket(bucketRecords).Cursor()
	for k, v := c.Seek(append(encodeID(chatID), encodeStamp(start)...)); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if len(k) != recordKeyLen || len(v) != idLen*2 {
			return fmt.Errorf("malformed record %x", k)
		}
		if !decodeStamp(k[idLen : idLen*2]).Before(end) {
			break
		}
		visit(decodeID(v[:idLen]), decodeID(v[idLen:]))
	}
	return nil
}

// scanNewest visits up to n keys under prefix, newest first.
func scanNewest(c *bolt.Cursor, prefix []byte, n int, visit func(k, v []byte)) error {
	if n <= 0 {
		return nil
	}

	// Position on the last key under prefix: seek past it, then step back.
	upper := append(append([]byte(nil), prefix...), bytes.Repeat([]byte{0xff}, indexKeyLen-len(prefix))...)
	k, v := c.Seek(upper)
	switch {
	case k == nil:
		k, v = c.Last()
	case !bytes.Equal(k, upper):
		k, v = c.Prev()
	}

	for count := 0; k != nil && bytes.HasPrefix(k, prefix) && count < n; count++ {
		if len(k) != indexKeyLen {
			return fmt.Errorf("malformed index key %x", k)
		}
		visit(k, v)
		k, v = c.Prev()
	}
	return nil
}

func encodeID(id int64) []byte {
	buf := make([]byte, idLen)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func decodeID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func encodeStamp(t time.Time) []byte {
	return encodeID(t.UnixNano())
}

func decodeStamp(b []byte) time.Time {
	return time.Unix(0, decodeID(b)).UTC()
}

func pairPrefix(userID, chatID int64) []byte {
	return append(encodeID(userID), encodeID(chatID)...)
}

func recordKey(chatID int64, ts time.Time, seq uint64) []byte {
	key := make([]byte, 0, recordKeyLen)
	key = append(key, encodeID(chatID)...)
	key = append(key, encodeStamp(ts)...)
	return binary.BigEndian.AppendUint64(key, seq)
}

func recordValue(userID, amount int64) []byte {
	return append(encodeID(userID), encodeID(amount)...)
}

func indexKey(userID, chatID int64, ts time.Time, seq uint64) []byte {
	return append(encodeID(userID), recordKey(chatID, ts, seq)...)
}

// expandHome expands ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}
