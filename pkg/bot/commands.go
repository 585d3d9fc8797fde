package bot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/logger"
	"github.com/0xmhha/ysdb/pkg/parser"
	"github.com/0xmhha/ysdb/pkg/report"
)

// push validates and records a contribution.
func (s *service) push(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error {
	amount, err := parser.Amount(cmd.Raw)
	if err != nil {
		return err
	}
	if err := s.config.Rules.ValidateAmount(amount); err != nil {
		return err
	}

	recent, err := s.agg.TrailingSum(ctx, msg.UserID, msg.ChatID, s.config.FatigueWindow)
	if err != nil {
		return err
	}
	if recent > s.config.FatigueThreshold {
		return apperr.DomainRule("bot.push", fmt.Sprintf(
			"you already recorded %s in the last %s, take a rest before pushing more",
			report.FormatAmount(recent), formatWindow(s.config.FatigueWindow)))
	}

	rec, err := s.ledger.Insert(ctx, msg.UserID, msg.ChatID, amount)
	if err != nil {
		return err
	}
	s.metrics.Contributed(amount)
	logger.FromContext(ctx).Info("contribution recorded", "amount", amount)

	horizons, err := s.agg.UserHorizons(ctx, msg.UserID, msg.ChatID, baseHorizons, false)
	if err != nil {
		return err
	}

	return s.formatter.FormatPush(w, report.Push{Record: rec, Horizons: horizons})
}

// pop deletes the caller's most recent record once confirmed, and otherwise
// shows what would be deleted.
func (s *service) pop(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error {
	last, err := s.ledger.LastN(ctx, msg.UserID, msg.ChatID, 1)
	if err != nil {
		return err
	}

	result := report.Pop{Confirmed: cmd.Arg == confirmWord}
	if len(last) > 0 {
		result.Last = &last[0]
	}

	if result.Confirmed && result.Last != nil {
		n, err := s.ledger.DeleteMostRecent(ctx, msg.UserID, msg.ChatID, 1)
		if err != nil {
			return err
		}
		result.Deleted = n
		s.metrics.Deleted(n)
		logger.FromContext(ctx).Info("contribution deleted", "amount", result.Last.Amount)
	}

	return s.formatter.FormatPop(w, result)
}

// myStat renders the caller's digest.
func (s *service) myStat(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error {
	full := cmd.Arg == fullWord

	recent, err := s.ledger.LastN(ctx, msg.UserID, msg.ChatID, s.config.RecentRecords)
	if err != nil {
		return err
	}

	horizons := baseHorizons
	if full {
		horizons = fullHorizons(s.config.AllTimeDays)
	}
	sums, err := s.agg.UserHorizons(ctx, msg.UserID, msg.ChatID, horizons, full)
	if err != nil {
		return err
	}

	return s.formatter.FormatDigest(w, report.Digest{
		Title:    msg.UserTitle,
		Recent:   recent,
		Horizons: sums,
		Full:     full,
	})
}

// stat renders the chat's current versus previous period.
func (s *service) stat(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error {
	days, err := s.config.Rules.Days(cmd.Raw)
	if err != nil {
		return err
	}

	cmp, err := s.agg.Compare(ctx, msg.ChatID, days)
	if err != nil {
		return err
	}

	return s.formatter.FormatComparison(w, report.Comparison{ChatTitle: msg.ChatTitle, Comparison: cmp})
}

// top renders the chat leaderboard.
func (s *service) top(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error {
	days, err := s.config.Rules.Days(cmd.Raw)
	if err != nil {
		return err
	}

	board, err := s.agg.Top(ctx, msg.ChatID, days)
	if err != nil {
		return err
	}

	return s.formatter.FormatLeaderboard(w, board)
}

// status greets the caller and lists the commands.
func (s *service) status(_ context.Context, w io.Writer, msg Message, _ parser.Command) error {
	return s.formatter.FormatStatus(w, report.Status{
		UserTitle: msg.UserTitle,
		Uptime:    s.config.Now().Sub(s.started),
		Driver:    s.config.Driver,
		Version:   s.config.Version,
	})
}

// formatWindow renders whole hours as "24h" and anything else as a Duration.
func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return d.String()
}
