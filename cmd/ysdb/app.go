package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/0xmhha/ysdb/pkg/aggregator"
	"github.com/0xmhha/ysdb/pkg/bot"
	"github.com/0xmhha/ysdb/pkg/config"
	"github.com/0xmhha/ysdb/pkg/ledger"
	"github.com/0xmhha/ysdb/pkg/logger"
	"github.com/0xmhha/ysdb/pkg/metrics"
	"github.com/0xmhha/ysdb/pkg/parser"
	"github.com/0xmhha/ysdb/pkg/ratelimit"
	"github.com/0xmhha/ysdb/pkg/report"
)

// postgresFlags registers the discrete connection flags on fs.
func postgresFlags(fs *flag.FlagSet) *config.PostgresParams {
	p := &config.PostgresParams{}
	fs.StringVar(&p.Host, "host", "", "PostgreSQL host")
	fs.IntVar(&p.Port, "port", 0, "PostgreSQL port (default 5432)")
	fs.StringVar(&p.Database, "db", "", "PostgreSQL database name")
	fs.StringVar(&p.User, "user", "", "PostgreSQL user")
	fs.StringVar(&p.Password, "password", "", "PostgreSQL password")
	return p
}

// loadConfig loads configuration from configPath or the standard locations.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Version: version,
	})
}

// ledgerConfig maps storage settings to the ledger.
func ledgerConfig(cfg *config.Config) ledger.Config {
	return ledger.Config{
		Driver:          ledger.Driver(cfg.Storage.Driver),
		DBPath:          cfg.Storage.DBPath,
		DatabaseURL:     cfg.Storage.DatabaseURL,
		MaxConns:        cfg.Storage.MaxConns,
		MinConns:        cfg.Storage.MinConns,
		ConnectAttempts: cfg.Storage.ConnectAttempts,
		Timeout:         cfg.Storage.Timeout,
	}
}

// openLedger opens the configured storage backend.
func openLedger(ctx context.Context, cfg *config.Config, log logger.Logger) (ledger.Ledger, error) {
	l, err := ledger.Open(ctx, ledgerConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	return l, nil
}

// limitConfigs converts configured cooldowns to limiter settings.
func limitConfigs(limits map[string]config.LimitConfig) map[string]ratelimit.Config {
	out := make(map[string]ratelimit.Config, len(limits))
	for kind, limit := range limits {
		out[kind] = ratelimit.Config{
			GlobalMinInterval: limit.GlobalMinInterval,
			ChatMinInterval:   limit.ChatMinInterval,
		}
	}
	return out
}

// serviceOptions selects the parts of the service that differ between the
// bot and the console.
type serviceOptions struct {
	format  report.Format
	limits  bool
	metrics *metrics.Metrics
}

// newService wires the aggregator, formatter and command service over l.
func newService(cfg *config.Config, l ledger.Ledger, opts serviceOptions, log logger.Logger) bot.Service {
	r := cfg.Rules

	var limits map[string]ratelimit.Config
	if opts.limits {
		limits = limitConfigs(cfg.Limits)
	}

	formatter := report.New(report.Config{
		Format:      opts.format,
		Location:    cfg.Location(),
		AllTimeDays: r.AllTimeDays,
	})

	return bot.New(bot.Config{
		Rules: parser.Rules{
			MinAmount:   r.MinAmount,
			MaxAmount:   r.MaxAmount,
			MinDays:     r.MinDays,
			MaxDays:     r.MaxDays,
			DefaultDays: r.DefaultDays,
		},
		Limits:           limits,
		FatigueThreshold: r.FatigueThreshold,
		FatigueWindow:    r.FatigueWindow,
		RecentRecords:    r.RecentRecords,
		AllTimeDays:      r.AllTimeDays,
		Driver:           cfg.Storage.Driver,
		Version:          version,
	}, l, aggregator.New(l, aggregator.Config{}), formatter, opts.metrics, log)
}
