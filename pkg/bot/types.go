// Package bot implements the chat command service.
//
// A Service receives one inbound chat message at a time and produces at most
// one text reply. Each message passes through the same pipeline:
//
//  1. parse the command keyword, ignoring anything that is not a command
//  2. gate it with the command's rate limiter (throttled calls get no reply)
//  3. register the user and chat on first sight
//  4. run the command against the ledger and aggregator
//  5. render the result or the error with a report.Formatter
//
// The service is transport agnostic. pkg/telegram and the console
// subcommand both drive it through Handle.
//
// Example usage:
//
//	svc := bot.New(bot.Config{Rules: parser.DefaultRules()}, l, agg, report.New(report.Config{}), m, log)
//	if reply, ok := svc.Handle(ctx, bot.Message{UserID: 1, ChatID: 1, Text: "/push 5k"}); ok {
//	    send(reply)
//	}
package bot

import (
	"context"
	"time"

	"github.com/0xmhha/ysdb/pkg/parser"
	"github.com/0xmhha/ysdb/pkg/ratelimit"
)

// Command keywords.
const (
	CommandPush   = "push"
	CommandPop    = "pop"
	CommandMyStat = "mystat"
	CommandStat   = "stat"
	CommandTop    = "top"
	CommandStatus = "status"
)

const (
	// confirmWord must follow /pop for the deletion to run.
	confirmWord = "yes"

	// fullWord switches /mystat to the extended digest.
	fullWord = "full"
)

// Service handles chat commands.
type Service interface {
	// Handle runs one inbound message.
	//
	// Returns the reply and true, or false when the message gets no reply:
	// it is not a known command or it was throttled.
	Handle(ctx context.Context, msg Message) (string, bool)
}

// Message is an inbound chat message with an authenticated identity.
type Message struct {
	// UserID and ChatID identify the sender and the conversation.
	UserID int64
	ChatID int64

	// UserTitle and ChatTitle are display titles. Empty titles fall back to
	// "@<id>".
	UserTitle string
	ChatTitle string

	// Text is the raw message text.
	Text string
}

// Config contains service configuration.
type Config struct {
	// Rules bounds amounts and periods.
	Rules parser.Rules

	// Limits holds the cooldowns of each command kind.
	Limits map[string]ratelimit.Config

	// FatigueThreshold refuses a push once the user's trailing sum in the
	// chat exceeds it. Default: 100000.
	FatigueThreshold int64

	// FatigueWindow is the trailing window of the fatigue guard. Default: 24h.
	FatigueWindow time.Duration

	// RecentRecords is the number of records listed by /mystat. Default: 5.
	RecentRecords int

	// AllTimeDays is the horizon standing in for "all time". Default: 3600.
	AllTimeDays int

	// Driver names the ledger backend, reported by /status.
	Driver string

	// Version is the build version, reported by /status.
	Version string

	// Now overrides the clock used for uptime and latency. Default: time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Rules == (parser.Rules{}) {
		c.Rules = parser.DefaultRules()
	}
	if c.FatigueThreshold <= 0 {
		c.FatigueThreshold = 100000
	}
	if c.FatigueWindow <= 0 {
		c.FatigueWindow = 24 * time.Hour
	}
	if c.RecentRecords <= 0 {
		c.RecentRecords = 5
	}
	if c.AllTimeDays <= 0 {
		c.AllTimeDays = 3600
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// baseHorizons are reported after a push and by /mystat.
var baseHorizons = []int{1, 7, 30}

// fullHorizons returns the /mystat full horizons ending with the all time one.
func fullHorizons(allTimeDays int) []int {
	return []int{1, 7, 15, 30, allTimeDays}
}
