// Package config provides configuration management for ysdb.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("storage driver: %s\n", cfg.Storage.Driver)
package config

import (
	"time"
	_ "time/tzdata" // report time zones must resolve in minimal containers
)

// Command kinds that own a rate limiter.
const (
	CommandPush   = "push"
	CommandPop    = "pop"
	CommandMyStat = "mystat"
	CommandStat   = "stat"
	CommandTop    = "top"
	CommandStatus = "status"
)

// Commands lists every command kind.
var Commands = []string{CommandPush, CommandPop, CommandMyStat, CommandStat, CommandTop, CommandStatus}

// Config represents the complete application configuration.
//
// Invariants:
// - Storage.Driver is memory, bolt or postgres
// - Rules bounds are positive and ordered
// - Limit intervals are >= 0.
type Config struct {
	// Telegram transport settings
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Per-command rate limits, keyed by command kind
	Limits map[string]LimitConfig `yaml:"limits" json:"limits"`

	// Domain rules
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// Report rendering settings
	Report ReportConfig `yaml:"report" json:"report"`

	// Metrics endpoint settings
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TelegramConfig contains chat transport settings.
type TelegramConfig struct {
	// Bot API token
	Token string `yaml:"token" json:"-"`

	// Outbound messages per second
	SendRate float64 `yaml:"send_rate" json:"send_rate"`

	// Outbound burst size
	SendBurst int `yaml:"send_burst" json:"send_burst"`
}

// StorageConfig contains ledger storage settings.
type StorageConfig struct {
	// Backend: memory, bolt or postgres
	Driver string `yaml:"driver" json:"driver"`

	// Path to the bbolt database file
	DBPath string `yaml:"db_path" json:"db_path"`

	// PostgreSQL connection string
	DatabaseURL string `yaml:"database_url" json:"-"`

	// Upper bound of pooled PostgreSQL connections
	MaxConns int32 `yaml:"max_conns" json:"max_conns"`

	// Idle PostgreSQL connections kept open
	MinConns int32 `yaml:"min_conns" json:"min_conns"`

	// PostgreSQL connection attempts at startup
	ConnectAttempts int `yaml:"connect_attempts" json:"connect_attempts"`

	// Timeout for opening storage
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LimitConfig contains the cooldowns of one command kind.
type LimitConfig struct {
	// Minimum time between completed commands across all chats
	GlobalMinInterval time.Duration `yaml:"global_min_interval" json:"global_min_interval"`

	// Minimum time between calls within one chat
	ChatMinInterval time.Duration `yaml:"chat_min_interval" json:"chat_min_interval"`
}

// RulesConfig contains the domain rules.
type RulesConfig struct {
	// Smallest amount accepted by one push
	MinAmount int64 `yaml:"min_amount" json:"min_amount"`

	// Largest amount accepted by one push
	MaxAmount int64 `yaml:"max_amount" json:"max_amount"`

	// A push is refused once the trailing sum exceeds this
	FatigueThreshold int64 `yaml:"fatigue_threshold" json:"fatigue_threshold"`

	// Length of the trailing fatigue window
	FatigueWindow time.Duration `yaml:"fatigue_window" json:"fatigue_window"`

	// Records listed by mystat
	RecentRecords int `yaml:"recent_records" json:"recent_records"`

	// Period used by stat and top without an argument
	DefaultDays int `yaml:"default_days" json:"default_days"`

	// Smallest period accepted by stat and top
	MinDays int `yaml:"min_days" json:"min_days"`

	// Largest period accepted by stat and top
	MaxDays int `yaml:"max_days" json:"max_days"`

	// Horizon reported as "all time"
	AllTimeDays int `yaml:"all_time_days" json:"all_time_days"`
}

// ReportConfig contains rendering settings.
type ReportConfig struct {
	// IANA time zone for timestamps, e.g. Europe/Moscow
	Timezone string `yaml:"timezone" json:"timezone"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	// Serve /metrics while the bot runs
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address
	Listen string `yaml:"listen" json:"listen"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - Unknown storage driver or missing driver settings
//   - Negative limit intervals
//   - Unordered or non-positive rule bounds
//   - Unknown time zone
//   - Invalid log level or format
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "bolt":
		if c.Storage.DBPath == "" {
			return ErrMissingDBPath
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrInvalidDriver
	}

	if c.Storage.MaxConns <= 0 || c.Storage.MinConns < 0 || c.Storage.MinConns > c.Storage.MaxConns {
		return ErrInvalidPoolSize
	}

	if c.Telegram.SendRate <= 0 || c.Telegram.SendBurst <= 0 {
		return ErrInvalidSendRate
	}

	for _, limit := range c.Limits {
		if limit.GlobalMinInterval < 0 || limit.ChatMinInterval < 0 {
			return ErrInvalidLimit
		}
	}

	r := c.Rules
	if r.MinAmount < 1 || r.MaxAmount < r.MinAmount {
		return ErrInvalidAmountBounds
	}
	if r.FatigueThreshold <= 0 || r.FatigueWindow <= 0 {
		return ErrInvalidFatigue
	}
	if r.MinDays < 1 || r.MaxDays < r.MinDays || r.DefaultDays < r.MinDays || r.DefaultDays > r.MaxDays {
		return ErrInvalidDayBounds
	}
	if r.RecentRecords <= 0 || r.AllTimeDays <= 0 {
		return ErrInvalidDayBounds
	}

	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return ErrInvalidTimezone
	}

	// Validate logging config
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// ValidateServe checks the configuration for running the chat bot, which
// additionally needs a bot token.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Location returns the report time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			SendRate:  25,
			SendBurst: 5,
		},
		Storage: StorageConfig{
			Driver:          "bolt",
			DBPath:          defaultDBPath(),
			MaxConns:        20,
			MinConns:        5,
			ConnectAttempts: 5,
			Timeout:         5 * time.Second,
		},
		Limits: DefaultLimits(),
		Rules: RulesConfig{
			MinAmount:        1,
			MaxAmount:        80000,
			FatigueThreshold: 100000,
			FatigueWindow:    24 * time.Hour,
			RecentRecords:    5,
			DefaultDays:      7,
			MinDays:          2,
			MaxDays:          180,
			AllTimeDays:      3600,
		},
		Report: ReportConfig{
			Timezone: "UTC",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// DefaultLimits returns the cooldowns used when none are configured.
//
// "/pop" and "/pop yes" share the pop limiter, so its chat cooldown must
// stay shorter than the time taken to confirm.
func DefaultLimits() map[string]LimitConfig {
	return map[string]LimitConfig{
		CommandPush:   {GlobalMinInterval: 200 * time.Millisecond, ChatMinInterval: 2 * time.Second},
		CommandPop:    {GlobalMinInterval: 200 * time.Millisecond, ChatMinInterval: time.Second},
		CommandMyStat: {GlobalMinInterval: 500 * time.Millisecond, ChatMinInterval: 5 * time.Second},
		CommandStat:   {GlobalMinInterval: time.Second, ChatMinInterval: 30 * time.Second},
		CommandTop:    {GlobalMinInterval: time.Second, ChatMinInterval: 30 * time.Second},
		CommandStatus: {GlobalMinInterval: time.Second, ChatMinInterval: time.Minute},
	}
}
