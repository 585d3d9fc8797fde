package bot

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/ysdb/pkg/aggregator"
	"github.com/0xmhha/ysdb/pkg/apperr"
	"github.com/0xmhha/ysdb/pkg/ledger"
	"github.com/0xmhha/ysdb/pkg/logger"
	"github.com/0xmhha/ysdb/pkg/metrics"
	"github.com/0xmhha/ysdb/pkg/parser"
	"github.com/0xmhha/ysdb/pkg/ratelimit"
	"github.com/0xmhha/ysdb/pkg/report"
)

// handlerFunc runs one command and writes its reply.
type handlerFunc func(ctx context.Context, w io.Writer, msg Message, cmd parser.Command) error

// service implements the Service interface.
type service struct {
	config    Config
	ledger    ledger.Ledger
	agg       aggregator.Aggregator
	formatter report.Formatter
	metrics   *metrics.Metrics
	limits    *ratelimit.Registry
	logger    logger.Logger
	started   time.Time
	handlers  map[string]handlerFunc
}

// New creates a command service.
//
// m may be nil, in which case nothing is recorded.
func New(cfg Config, l ledger.Ledger, agg aggregator.Aggregator, f report.Formatter, m *metrics.Metrics, log logger.Logger) Service {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}

	limits := make(map[string]ratelimit.Config, len(cfg.Limits))
	for kind, limit := range cfg.Limits {
		if limit.Now == nil {
			limit.Now = cfg.Now
		}
		limits[kind] = limit
	}

	s := &service{
		config:    cfg,
		ledger:    l,
		agg:       agg,
		formatter: f,
		metrics:   m,
		limits:    ratelimit.NewRegistry(limits),
		logger:    log,
		started:   cfg.Now(),
	}
	s.handlers = map[string]handlerFunc{
		CommandPush:   s.push,
		CommandPop:    s.pop,
		CommandMyStat: s.myStat,
		CommandStat:   s.stat,
		CommandTop:    s.top,
		CommandStatus: s.status,
	}

	return s
}

// Handle implements Service.Handle.
func (s *service) Handle(ctx context.Context, msg Message) (string, bool) {
	cmd, ok := parser.ParseCommand(msg.Text)
	if !ok {
		return "", false
	}
	handler, ok := s.handlers[cmd.Name]
	if !ok {
		return "", false
	}

	limiter := s.limits.For(cmd.Name)
	if limiter.ShouldThrottle(msg.UserID, msg.ChatID) {
		s.metrics.Throttled(cmd.Name)
		s.logger.Debug("command throttled", "command", cmd.Name, "chat_id", msg.ChatID)
		return "", false
	}
	defer limiter.MarkCompleted()

	msg.UserTitle = ledger.DisplayTitle(msg.UserID, msg.UserTitle)
	msg.ChatTitle = ledger.DisplayTitle(msg.ChatID, msg.ChatTitle)

	log := s.logger.With(
		"request_id", uuid.NewString(),
		"command", cmd.Name,
		"user_id", msg.UserID,
		"chat_id", msg.ChatID,
	)
	ctx = logger.WithContext(ctx, log)

	start := s.config.Now()
	reply, err := s.run(ctx, handler, msg, cmd)
	elapsed := s.config.Now().Sub(start)

	if err != nil {
		reply = s.renderError(log, cmd, err)
		s.metrics.ObserveCommand(cmd.Name, outcome(err), elapsed)
		return reply, true
	}

	log.Debug("command handled", "duration", elapsed)
	s.metrics.ObserveCommand(cmd.Name, metrics.OutcomeOK, elapsed)
	return reply, true
}

// run registers the caller and executes handler.
func (s *service) run(ctx context.Context, handler handlerFunc, msg Message, cmd parser.Command) (string, error) {
	created, err := s.ledger.EnsureUser(ctx, msg.UserID, msg.UserTitle)
	if err != nil {
		return "", err
	}
	if created {
		logger.FromContext(ctx).Info("user registered", "title", msg.UserTitle)
	}

	created, err = s.ledger.EnsureChat(ctx, msg.ChatID, msg.ChatTitle)
	if err != nil {
		return "", err
	}
	if created {
		logger.FromContext(ctx).Info("chat registered", "title", msg.ChatTitle)
	}

	var out error
	reply := report.Render(func(w io.Writer) error {
		out = handler(ctx, w, msg, cmd)
		return out
	})
	if out != nil {
		return "", out
	}
	return reply, nil
}

// renderError logs err and turns it into a reply.
func (s *service) renderError(log logger.Logger, cmd parser.Command, err error) string {
	kind := apperr.KindOf(err)
	s.metrics.Error(kind.String())

	if apperr.IsUserFacing(err) {
		log.Info("command rejected", "kind", kind.String(), "reason", apperr.Message(err))
	} else {
		log.Error("command failed", "kind", kind.String(), "text", cmd.Raw, "error", err)
	}

	return report.Render(func(w io.Writer) error {
		return s.formatter.FormatError(w, err)
	})
}

func outcome(err error) string {
	if apperr.IsUserFacing(err) {
		return metrics.OutcomeUserError
	}
	return metrics.OutcomeInternalError
}
