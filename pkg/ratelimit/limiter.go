package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the throttle for one command kind. It is safe for concurrent use.
type Limiter struct {
	config Config

	mu         sync.Mutex
	globalLast time.Time
	chatLast   map[int64]time.Time
}

// New creates a Limiter with the given thresholds.
func New(cfg Config) *Limiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Limiter{
		config:   cfg,
		chatLast: make(map[int64]time.Time),
	}
}

// ShouldThrottle reports whether a call from userID in chatID must be dropped.
//
// A call inside the global cooldown is throttled without touching any state.
// A call inside the chat cooldown is throttled and restarts that chat's
// cooldown. Otherwise the call is recorded for the chat and allowed.
// userID does not take part in the decision.
func (l *Limiter) ShouldThrottle(userID, chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()

	if !l.globalLast.IsZero() && now.Sub(l.globalLast) < l.config.GlobalMinInterval {
		return true
	}

	if last, ok := l.chatLast[chatID]; ok && now.Sub(last) < l.config.ChatMinInterval {
		l.chatLast[chatID] = now
		return true
	}

	l.chatLast[chatID] = now
	return false
}

// MarkCompleted records that a non-throttled command finished now.
func (l *Limiter) MarkCompleted() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalLast = l.config.Now()
}

// Config returns the limiter thresholds.
func (l *Limiter) Config() Config {
	return l.config
}
