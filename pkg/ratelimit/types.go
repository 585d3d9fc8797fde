// Package ratelimit gates chat commands with a global and a per-chat cooldown.
//
// Each command kind owns one Limiter. A command is throttled when it arrives
// within GlobalMinInterval of the last completed command of that kind in any
// chat, or within ChatMinInterval of the last call in the same chat. The
// caller records completion with MarkCompleted once a non-throttled command
// finishes.
//
// Example usage:
//
//	reg := ratelimit.NewRegistry(map[string]ratelimit.Config{
//	    "push": {GlobalMinInterval: time.Second, ChatMinInterval: 5 * time.Second},
//	})
//	lim := reg.For("push")
//	if lim.ShouldThrottle(userID, chatID) {
//	    return // dropped silently
//	}
//	defer lim.MarkCompleted()
package ratelimit

import "time"

// Config holds the thresholds of one Limiter.
//
// Zero intervals disable the corresponding check.
type Config struct {
	// GlobalMinInterval is the minimum time between completed commands across all chats.
	GlobalMinInterval time.Duration `yaml:"global_min_interval"`

	// ChatMinInterval is the minimum time between calls within one chat.
	ChatMinInterval time.Duration `yaml:"chat_min_interval"`

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time `yaml:"-"`
}
