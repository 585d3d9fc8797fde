// Package report renders contribution statistics as chat replies.
//
// Two formats are available: plain text for chat transports and JSON for
// scripting through the console.
//
// Example usage:
//
//	f := report.New(report.Config{Format: report.FormatText})
//	reply := report.Render(func(w io.Writer) error {
//	    return f.FormatLeaderboard(w, board)
//	})
package report

import (
	"io"
	"strings"
	"time"

	"github.com/0xmhha/ysdb/pkg/aggregator"
	"github.com/0xmhha/ysdb/pkg/ledger"
)

// Format represents an output format.
type Format string

const (
	// FormatText renders human readable chat messages.
	FormatText Format = "text"

	// FormatJSON renders one JSON document per reply.
	FormatJSON Format = "json"
)

// Formatter renders command results.
type Formatter interface {
	// FormatPush renders the reply to a recorded contribution.
	FormatPush(w io.Writer, p Push) error

	// FormatDigest renders a personal digest.
	FormatDigest(w io.Writer, d Digest) error

	// FormatComparison renders the current versus previous period report.
	FormatComparison(w io.Writer, c Comparison) error

	// FormatLeaderboard renders a ranked list of contributors.
	FormatLeaderboard(w io.Writer, b aggregator.Leaderboard) error

	// FormatStatus renders identity, uptime and help.
	FormatStatus(w io.Writer, s Status) error

	// FormatPop renders either the confirmation prompt or the deletion result.
	FormatPop(w io.Writer, p Pop) error

	// FormatError renders a failed command.
	//
	// User-facing errors show their message. Anything else is reported as an
	// internal failure without details.
	FormatError(w io.Writer, err error) error
}

// Push is the result of a recorded contribution.
type Push struct {
	Record   ledger.Record
	Horizons []aggregator.Horizon
}

// Digest is a personal summary.
type Digest struct {
	// Title is the user's display title.
	Title string

	// Recent holds the latest records, most recent first.
	Recent []ledger.Record

	// Horizons holds trailing sums, shortest first.
	Horizons []aggregator.Horizon

	// Full marks the extended digest, which also reports totals across chats.
	Full bool
}

// Comparison is a chat period comparison.
type Comparison struct {
	ChatTitle string
	aggregator.Comparison
}

// Status describes the running bot.
type Status struct {
	// UserTitle is the caller's display title.
	UserTitle string

	// Uptime is the time since the process started.
	Uptime time.Duration

	// Driver is the ledger backend name.
	Driver string

	// Version is the build version.
	Version string
}

// Pop is the outcome of a pop command.
type Pop struct {
	// Confirmed is false when the caller has not yet answered "yes".
	Confirmed bool

	// Last is the record that is or was most recent, nil if none exists.
	Last *ledger.Record

	// Deleted is the number of removed records.
	Deleted int
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatText.
	Format Format

	// Location is the time zone for rendered timestamps.
	// Default: UTC.
	Location *time.Location

	// AllTimeDays is the horizon length labelled "all time".
	// Default: 3600.
	AllTimeDays int
}

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AllTimeDays <= 0 {
		cfg.AllTimeDays = 3600
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatText:
		fallthrough
	default:
		return &textFormatter{config: cfg}
	}
}

// Render runs fn against a buffer and returns what it wrote. A write
// error cannot occur on a strings.Builder, so it is ignored.
func Render(fn func(w io.Writer) error) string {
	var sb strings.Builder
	_ = fn(&sb)
	return strings.TrimRight(sb.String(), "\n")
}
