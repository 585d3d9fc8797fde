package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/ysdb/pkg/aggregator"
	"github.com/0xmhha/ysdb/pkg/apperr"
)

const (
	// userErrorPrefix marks a problem with the caller's input.
	userErrorPrefix = "⚠️ "

	// internalErrorText is shown for every failure that is not the caller's fault.
	internalErrorText = "❌ Something went wrong on our side. Please try again later."

	// dateLayout is used for period bounds.
	dateLayout = "02.01"

	// stampLayout is used for record timestamps.
	stampLayout = "02.01 15:04"
)

// helpText lists the supported commands.
var helpText = []string{
	"/push <amount>[k] - record a contribution, e.g. /push 150 or /push 5k",
	"/pop yes - delete your most recent record",
	"/mystat [full] - your recent records and totals",
	"/stat [days] - chat totals, this period vs the previous one (default 7)",
	"/top [days] - chat leaderboard (default 7)",
	"/status - this message",
}

// textFormatter formats output as plain chat text.
type textFormatter struct {
	config Config
}

// FormatPush implements Formatter.FormatPush.
func (f *textFormatter) FormatPush(w io.Writer, p Push) error {
	if _, err := fmt.Fprintf(w, "✅ +%s recorded\n", FormatAmount(p.Record.Amount)); err != nil {
		return err
	}

	parts := make([]string, 0, len(p.Horizons))
	for _, h := range p.Horizons {
		parts = append(parts, fmt.Sprintf("%s: %s", horizonLabel(h.Days, f.config.AllTimeDays), FormatAmount(h.Sum)))
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " | "))
	return err
}

// FormatDigest implements Formatter.FormatDigest.
func (f *textFormatter) FormatDigest(w io.Writer, d Digest) error {
	if _, err := fmt.Fprintf(w, "📒 %s\n\n", d.Title); err != nil {
		return err
	}

	if len(d.Recent) == 0 {
		if _, err := fmt.Fprintln(w, "No records yet. Start with /push <amount>."); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, "Recent:"); err != nil {
			return err
		}
		for _, r := range d.Recent {
			if _, err := fmt.Fprintf(w, "  %s  +%s\n",
				r.Timestamp.In(f.config.Location).Format(stampLayout),
				FormatAmount(r.Amount)); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(w, "\nTotals:"); err != nil {
		return err
	}
	for _, h := range d.Horizons {
		line := fmt.Sprintf("  %s: %s", horizonLabel(h.Days, f.config.AllTimeDays), FormatAmount(h.Sum))
		if d.Full {
			line += fmt.Sprintf(" (all chats: %s)", FormatAmount(h.AllChats))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// FormatComparison implements Formatter.FormatComparison.
func (f *textFormatter) FormatComparison(w io.Writer, c Comparison) error {
	if _, err := fmt.Fprintf(w, "📊 %s: last %d days vs the %d days before\n",
		c.ChatTitle, c.Days, c.Days); err != nil {
		return err
	}

	if err := f.writePeriod(w, "Current period", c.Current); err != nil {
		return err
	}
	return f.writePeriod(w, "Previous period", c.Previous)
}

func (f *textFormatter) writePeriod(w io.Writer, name string, p aggregator.PeriodStats) error {
	// End is exclusive, so the last covered day is the one before it.
	lastDay := p.End.Add(-time.Nanosecond)

	lines := []string{
		fmt.Sprintf("\n%s (%s - %s):",
			name,
			p.Start.In(f.config.Location).Format(dateLayout),
			lastDay.In(f.config.Location).Format(dateLayout)),
		"  Total: " + FormatAmount(p.Total),
		"  Per day: " + FormatAverage(p.AvgPerDay),
		fmt.Sprintf("  Participants: %d", p.ActiveUsers),
	}
	if p.HasParticipants() {
		lines = append(lines,
			"  Per participant: "+FormatAverage(p.AvgPerParticipant),
			"  Per participant per day: "+FormatAverage(p.AvgPerParticipantPerDay))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatLeaderboard implements Formatter.FormatLeaderboard.
func (f *textFormatter) FormatLeaderboard(w io.Writer, b aggregator.Leaderboard) error {
	if len(b.Entries) == 0 {
		_, err := fmt.Fprintf(w, "No contributions in the last %d days.\n", b.Days)
		return err
	}

	if _, err := fmt.Fprintf(w, "🏆 Top for the last %d days\n\n", b.Days); err != nil {
		return err
	}
	for i, e := range b.Entries {
		if _, err := fmt.Fprintf(w, "%d. %s: %s\n", i+1, e.Title, FormatAmount(e.Amount)); err != nil {
			return err
		}
	}
	return nil
}

// FormatStatus implements Formatter.FormatStatus.
func (f *textFormatter) FormatStatus(w io.Writer, s Status) error {
	lines := []string{
		"YSDB: Your self-discipline bot",
		fmt.Sprintf("Hello, %s!", s.UserTitle),
		"",
		"Version: " + s.Version,
		"Uptime: " + s.Uptime.Truncate(time.Second).String(),
		"Storage: " + s.Driver,
		"",
		"Commands:",
	}
	lines = append(lines, helpText...)

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// FormatPop implements Formatter.FormatPop.
func (f *textFormatter) FormatPop(w io.Writer, p Pop) error {
	switch {
	case p.Last == nil:
		_, err := fmt.Fprintln(w, "Nothing to delete.")
		return err
	case !p.Confirmed:
		_, err := fmt.Fprintf(w, "This will delete your most recent record: +%s at %s.\nSend /pop yes to confirm.\n",
			FormatAmount(p.Last.Amount),
			p.Last.Timestamp.In(f.config.Location).Format(stampLayout))
		return err
	default:
		_, err := fmt.Fprintf(w, "🗑 Deleted +%s from %s.\n",
			FormatAmount(p.Last.Amount),
			p.Last.Timestamp.In(f.config.Location).Format(stampLayout))
		return err
	}
}

// FormatError implements Formatter.FormatError.
func (f *textFormatter) FormatError(w io.Writer, err error) error {
	if apperr.IsUserFacing(err) {
		_, werr := fmt.Fprintln(w, userErrorPrefix+apperr.Message(err))
		return werr
	}
	_, werr := fmt.Fprintln(w, internalErrorText)
	return werr
}
