package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidDriver is returned when the storage driver is not recognized.
	ErrInvalidDriver = errors.New("invalid storage driver: must be memory, bolt, or postgres")

	// ErrMissingDBPath is returned when the bolt driver has no database path.
	ErrMissingDBPath = errors.New("storage.db_path is required for the bolt driver")

	// ErrMissingDatabaseURL is returned when the postgres driver has no URL.
	ErrMissingDatabaseURL = errors.New("storage.database_url is required for the postgres driver")

	// ErrInvalidPoolSize is returned when connection pool bounds are inconsistent.
	ErrInvalidPoolSize = errors.New("invalid pool size: need 0 <= min_conns <= max_conns and max_conns > 0")

	// ErrInvalidSendRate is returned when the outbound rate or burst is <= 0.
	ErrInvalidSendRate = errors.New("invalid telegram send rate: rate and burst must be > 0")

	// ErrInvalidLimit is returned when a command cooldown is negative.
	ErrInvalidLimit = errors.New("invalid limit: intervals must be >= 0")

	// ErrInvalidAmountBounds is returned when amount bounds are not 1 <= min <= max.
	ErrInvalidAmountBounds = errors.New("invalid amount bounds: need 1 <= min_amount <= max_amount")

	// ErrInvalidFatigue is returned when the fatigue threshold or window is <= 0.
	ErrInvalidFatigue = errors.New("invalid fatigue rule: threshold and window must be > 0")

	// ErrInvalidDayBounds is returned when period settings are inconsistent.
	ErrInvalidDayBounds = errors.New("invalid day bounds: need 1 <= min_days <= default_days <= max_days")

	// ErrInvalidTimezone is returned when the report time zone is unknown.
	ErrInvalidTimezone = errors.New("invalid report timezone")

	// ErrMissingToken is returned when serving without a bot token.
	ErrMissingToken = errors.New("telegram.token is required (or set YSDB_BOT_TOKEN)")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
