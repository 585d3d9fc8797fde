// Package metrics exposes Prometheus collectors for the bot.
//
// Label values are bounded: command names come from the fixed command set
// and error kinds from apperr. No per-user or per-chat labels exist.
//
// Example usage:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	m.ObserveCommand("push", metrics.OutcomeOK, time.Since(start))
//	go metrics.Serve(ctx, ":9090", prometheus.DefaultGatherer, log)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome values of a handled command.
const (
	OutcomeOK            = "ok"
	OutcomeUserError     = "user_error"
	OutcomeInternalError = "internal_error"
)

// Metrics holds the bot collectors. A nil *Metrics records nothing.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	throttled       *prometheus.CounterVec
	errors          *prometheus.CounterVec
	contributions   prometheus.Counter
	contributed     prometheus.Counter
	deleted         prometheus.Counter
	sendWait        prometheus.Histogram
	sendFailures    prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ysdb_commands_total",
			Help: "Commands handled, by command and outcome",
		}, []string{"command", "outcome"}),

		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ysdb_command_duration_seconds",
			Help:    "Time spent handling a command, including storage round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"command"}),

		throttled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ysdb_commands_throttled_total",
			Help: "Commands dropped by the rate limiter",
		}, []string{"command"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ysdb_errors_total",
			Help: "Failed commands by error kind",
		}, []string{"kind"}),

		contributions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ysdb_contributions_total",
			Help: "Contribution records inserted",
		}),

		contributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ysdb_contributed_amount_total",
			Help: "Sum of inserted contribution amounts",
		}),

		deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ysdb_records_deleted_total",
			Help: "Contribution records removed by pop",
		}),

		sendWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ysdb_send_wait_seconds",
			Help:    "Time replies waited for the outbound rate limiter",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		sendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ysdb_send_failures_total",
			Help: "Replies the transport failed to deliver",
		}),
	}
}

// ObserveCommand records a handled command.
func (m *Metrics) ObserveCommand(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// Throttled records a command dropped by the rate limiter.
func (m *Metrics) Throttled(command string) {
	if m == nil {
		return
	}
	m.throttled.WithLabelValues(command).Inc()
}

// Error records a failed command by kind.
func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// Contributed records an inserted record.
func (m *Metrics) Contributed(amount int64) {
	if m == nil {
		return
	}
	m.contributions.Inc()
	m.contributed.Add(float64(amount))
}

// Deleted records removed records.
func (m *Metrics) Deleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.Add(float64(n))
}

// SendWaited records time spent waiting to send a reply.
func (m *Metrics) SendWaited(d time.Duration) {
	if m == nil {
		return
	}
	m.sendWait.Observe(d.Seconds())
}

// SendFailed records an undelivered reply.
func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}
