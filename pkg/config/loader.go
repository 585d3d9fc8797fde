package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by the loader.
const (
	EnvConfig        = "YSDB_CONFIG"
	EnvBotToken      = "YSDB_BOT_TOKEN"
	EnvDatabaseURL   = "YSDB_DATABASE_URL"
	EnvDBPath        = "YSDB_DB"
	EnvStorageDriver = "YSDB_STORAGE_DRIVER"
	EnvLogLevel      = "YSDB_LOG_LEVEL"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, YSDB_CONFIG is consulted, then the locations
// returned by SearchPaths.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	explicit := l.configPath
	if explicit == "" {
		explicit = os.Getenv(EnvConfig)
	}

	configPath := explicit
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// A path that was asked for must load; a searched one may be absent.
			if explicit != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile returns the first existing path from SearchPaths, or an
// empty string.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Telegram
	if override.Telegram.Token != "" {
		result.Telegram.Token = override.Telegram.Token
	}
	if override.Telegram.SendRate > 0 {
		result.Telegram.SendRate = override.Telegram.SendRate
	}
	if override.Telegram.SendBurst > 0 {
		result.Telegram.SendBurst = override.Telegram.SendBurst
	}

	// Storage
	if override.Storage.Driver != "" {
		result.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}
	if override.Storage.DatabaseURL != "" {
		result.Storage.DatabaseURL = override.Storage.DatabaseURL
	}
	if override.Storage.MaxConns > 0 {
		result.Storage.MaxConns = override.Storage.MaxConns
	}
	if override.Storage.MinConns > 0 {
		result.Storage.MinConns = override.Storage.MinConns
	}
	if override.Storage.ConnectAttempts > 0 {
		result.Storage.ConnectAttempts = override.Storage.ConnectAttempts
	}
	if override.Storage.Timeout > 0 {
		result.Storage.Timeout = override.Storage.Timeout
	}

	// Limits merge per command; a listed command replaces its defaults.
	limits := make(map[string]LimitConfig, len(base.Limits))
	for kind, limit := range base.Limits {
		limits[kind] = limit
	}
	for kind, limit := range override.Limits {
		limits[strings.ToLower(kind)] = limit
	}
	result.Limits = limits

	// Rules
	r := override.Rules
	if r.MinAmount > 0 {
		result.Rules.MinAmount = r.MinAmount
	}
	if r.MaxAmount > 0 {
		result.Rules.MaxAmount = r.MaxAmount
	}
	if r.FatigueThreshold > 0 {
		result.Rules.FatigueThreshold = r.FatigueThreshold
	}
	if r.FatigueWindow > 0 {
		result.Rules.FatigueWindow = r.FatigueWindow
	}
	if r.RecentRecords > 0 {
		result.Rules.RecentRecords = r.RecentRecords
	}
	if r.DefaultDays > 0 {
		result.Rules.DefaultDays = r.DefaultDays
	}
	if r.MinDays > 0 {
		result.Rules.MinDays = r.MinDays
	}
	if r.MaxDays > 0 {
		result.Rules.MaxDays = r.MaxDays
	}
	if r.AllTimeDays > 0 {
		result.Rules.AllTimeDays = r.AllTimeDays
	}

	if override.Report.Timezone != "" {
		result.Report.Timezone = override.Report.Timezone
	}

	// Enabled is a bool, so we always take the override value
	result.Metrics.Enabled = override.Metrics.Enabled
	if override.Metrics.Listen != "" {
		result.Metrics.Listen = override.Metrics.Listen
	}

	// Logging
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - YSDB_BOT_TOKEN: Telegram bot token
//   - YSDB_DATABASE_URL: PostgreSQL URL; selects the postgres driver
//   - YSDB_DB: Path to the bbolt database file
//   - YSDB_STORAGE_DRIVER: memory, bolt or postgres
//   - YSDB_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if token := os.Getenv(EnvBotToken); token != "" {
		result.Telegram.Token = token
	}

	if dbURL := os.Getenv(EnvDatabaseURL); dbURL != "" {
		result.Storage.DatabaseURL = dbURL
		result.Storage.Driver = "postgres"
	}

	if dbPath := os.Getenv(EnvDBPath); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if driver := os.Getenv(EnvStorageDriver); driver != "" {
		result.Storage.Driver = strings.ToLower(driver)
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// PostgresParams are the discrete connection settings accepted on the
// command line.
type PostgresParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// IsZero reports whether no parameter was given.
func (p PostgresParams) IsZero() bool {
	return p == PostgresParams{}
}

// URL assembles a postgres:// connection string. Missing host and port
// default to localhost:5432.
func (p PostgresParams) URL() string {
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + p.Database,
	}
	switch {
	case p.User != "" && p.Password != "":
		u.User = url.UserPassword(p.User, p.Password)
	case p.User != "":
		u.User = url.User(p.User)
	}

	return u.String()
}

// ApplyPostgres switches storage to postgres using params, unless params
// is empty.
func (c *Config) ApplyPostgres(params PostgresParams) {
	if params.IsZero() {
		return
	}
	c.Storage.Driver = "postgres"
	c.Storage.DatabaseURL = params.URL()
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions since it may hold the bot token.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
