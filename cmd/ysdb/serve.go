package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/ysdb/pkg/config"
	"github.com/0xmhha/ysdb/pkg/metrics"
	"github.com/0xmhha/ysdb/pkg/report"
	"github.com/0xmhha/ysdb/pkg/telegram"
)

// serveCommand runs the Telegram bot.
type serveCommand struct {
	configPath string
	botToken   string
	postgres   config.PostgresParams
}

// parseServeFlags parses serve flags.
func parseServeFlags(configPath string, args []string) (*serveCommand, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	botToken := fs.String("bot-token", "", "Telegram bot token")
	pg := postgresFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &serveCommand{
		configPath: configPath,
		botToken:   *botToken,
		postgres:   *pg,
	}, nil
}

// configure loads configuration and applies command-line overrides.
func (c *serveCommand) configure() (*config.Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	if c.botToken != "" {
		cfg.Telegram.Token = c.botToken
	}
	cfg.ApplyPostgres(c.postgres)

	if err := cfg.ValidateServe(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute runs the serve command until SIGINT or SIGTERM.
func (c *serveCommand) Execute() error {
	cfg, err := c.configure()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := openLedger(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc := newService(cfg, l, serviceOptions{
		format:  report.FormatText,
		limits:  true,
		metrics: m,
	}, log)

	client, err := telegram.New(telegram.Config{
		Token:     cfg.Telegram.Token,
		SendRate:  cfg.Telegram.SendRate,
		SendBurst: cfg.Telegram.SendBurst,
	}, svc, m, log)
	if err != nil {
		return err
	}

	log.Info("ysdb starting",
		"version", version,
		"driver", cfg.Storage.Driver,
		"metrics", cfg.Metrics.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Listen, reg, log)
		})
	}
	g.Go(func() error {
		client.Start(gctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("ysdb stopped")
	return nil
}
