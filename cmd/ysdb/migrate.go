package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/0xmhha/ysdb/pkg/config"
	"github.com/0xmhha/ysdb/pkg/ledger"
)

// errMigrateDriver is returned when migrate runs against a non-postgres store.
var errMigrateDriver = errors.New("migrate requires the postgres driver: set storage.database_url, YSDB_DATABASE_URL or -host/-db")

// migrateCommand applies the PostgreSQL schema.
type migrateCommand struct {
	configPath string
	postgres   config.PostgresParams
}

// parseMigrateFlags parses migrate flags.
func parseMigrateFlags(configPath string, args []string) (*migrateCommand, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	pg := postgresFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &migrateCommand{
		configPath: configPath,
		postgres:   *pg,
	}, nil
}

// Execute runs the migrate command.
func (c *migrateCommand) Execute() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyPostgres(c.postgres)
	if cfg.Storage.Driver != string(ledger.DriverPostgres) {
		return errMigrateDriver
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := newLogger(cfg)
	ctx := context.Background()

	pool, err := ledger.Connect(ctx, ledgerConfig(cfg), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := ledger.Migrate(ctx, pool, log)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Println("Schema is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	return nil
}
