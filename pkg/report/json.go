package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/0xmhha/ysdb/pkg/aggregator"
	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/ledger"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// jsonRecord is the JSON form of a ledger record.
type jsonRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Amount    int64     `json:"amount"`
}

// jsonHorizon is the JSON form of a horizon sum.
type jsonHorizon struct {
	Days     int    `json:"days"`
	Label    string `json:"label"`
	Sum      int64  `json:"sum"`
	AllChats *int64 `json:"all_chats,omitempty"`
}

// jsonPeriod is the JSON form of period statistics.
type jsonPeriod struct {
	Start                   time.Time `json:"start"`
	End                     time.Time `json:"end"`
	Days                    int       `json:"days"`
	Total                   int64     `json:"total"`
	ActiveUsers             int       `json:"active_users"`
	AvgPerDay               float64   `json:"avg_per_day"`
	AvgPerParticipant       *float64  `json:"avg_per_participant,omitempty"`
	AvgPerParticipantPerDay *float64  `json:"avg_per_participant_per_day,omitempty"`
}

// FormatPush implements Formatter.FormatPush.
func (f *jsonFormatter) FormatPush(w io.Writer, p Push) error {
	return f.encode(w, map[string]interface{}{
		"type":     "push",
		"record":   toJSONRecord(p.Record),
		"horizons": f.toJSONHorizons(p.Horizons, false),
	})
}

// FormatDigest implements Formatter.FormatDigest.
func (f *jsonFormatter) FormatDigest(w io.Writer, d Digest) error {
	recent := make([]jsonRecord, 0, len(d.Recent))
	for _, r := range d.Recent {
		recent = append(recent, toJSONRecord(r))
	}

	return f.encode(w, map[string]interface{}{
		"type":     "digest",
		"title":    d.Title,
		"full":     d.Full,
		"recent":   recent,
		"horizons": f.toJSONHorizons(d.Horizons, d.Full),
	})
}

// FormatComparison implements Formatter.FormatComparison.
func (f *jsonFormatter) FormatComparison(w io.Writer, c Comparison) error {
	return f.encode(w, map[string]interface{}{
		"type":     "comparison",
		"chat":     c.ChatTitle,
		"days":     c.Days,
		"current":  toJSONPeriod(c.Current),
		"previous": toJSONPeriod(c.Previous),
	})
}

// FormatLeaderboard implements Formatter.FormatLeaderboard.
func (f *jsonFormatter) FormatLeaderboard(w io.Writer, b aggregator.Leaderboard) error {
	type entry struct {
		Rank   int    `json:"rank"`
		UserID int64  `json:"user_id"`
		Title  string `json:"title"`
		Amount int64  `json:"amount"`
	}

	entries := make([]entry, 0, len(b.Entries))
	for i, e := range b.Entries {
		entries = append(entries, entry{Rank: i + 1, UserID: e.UserID, Title: e.Title, Amount: e.Amount})
	}

	return f.encode(w, map[string]interface{}{
		"type":    "leaderboard",
		"days":    b.Days,
		"entries": entries,
	})
}

// FormatStatus implements Formatter.FormatStatus.
func (f *jsonFormatter) FormatStatus(w io.Writer, s Status) error {
	return f.encode(w, map[string]interface{}{
		"type":           "status",
		"user":           s.UserTitle,
		"version":        s.Version,
		"uptime_seconds": int64(s.Uptime / time.Second),
		"driver":         s.Driver,
		"commands":       helpText,
	})
}

// FormatPop implements Formatter.FormatPop.
func (f *jsonFormatter) FormatPop(w io.Writer, p Pop) error {
	out := map[string]interface{}{
		"type":      "pop",
		"confirmed": p.Confirmed,
		"deleted":   p.Deleted,
	}
	if p.Last != nil {
		out["record"] = toJSONRecord(*p.Last)
	}
	return f.encode(w, out)
}

// FormatError implements Formatter.FormatError.
func (f *jsonFormatter) FormatError(w io.Writer, err error) error {
	message := "internal error"
	if apperr.IsUserFacing(err) {
		message = apperr.Message(err)
	}

	return f.encode(w, map[string]interface{}{
		"type":        "error",
		"kind":        apperr.KindOf(err).String(),
		"user_facing": apperr.IsUserFacing(err),
		"message":     message,
	})
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *jsonFormatter) toJSONHorizons(horizons []aggregator.Horizon, withAllChats bool) []jsonHorizon {
	out := make([]jsonHorizon, 0, len(horizons))
	for _, h := range horizons {
		jh := jsonHorizon{Days: h.Days, Label: horizonLabel(h.Days, f.config.AllTimeDays), Sum: h.Sum}
		if withAllChats {
			all := h.AllChats
			jh.AllChats = &all
		}
		out = append(out, jh)
	}
	return out
}

func toJSONRecord(r ledger.Record) jsonRecord {
	return jsonRecord{Timestamp: r.Timestamp, Amount: r.Amount}
}

func toJSONPeriod(p aggregator.PeriodStats) jsonPeriod {
	jp := jsonPeriod{
		Start:       p.Start,
		End:         p.End,
		Days:        p.Days,
		Total:       p.Total,
		ActiveUsers: p.ActiveUsers,
		AvgPerDay:   p.AvgPerDay,
	}
	if p.HasParticipants() {
		perParticipant := p.AvgPerParticipant
		perParticipantDay := p.AvgPerParticipantPerDay
		jp.AvgPerParticipant = &perParticipant
		jp.AvgPerParticipantPerDay = &perParticipantDay
	}
	return jp
}
