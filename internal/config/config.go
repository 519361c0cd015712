package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"     validate:"required"`
	Cron      CronConfig      `mapstructure:"cron"      validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains connection settings for the shared remote store.
// The remote store is the only coordination channel between instances, so
// a production deployment must always configure it; the in-process store
// used by local development is constructed explicitly in code, never
// selected here.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CronConfig contains settings for the scheduled job trigger endpoints.
type CronConfig struct {
	// Secret is the shared bearer token the external scheduler must present
	// on /api/jobs/* requests.
	Secret string `mapstructure:"secret" validate:"required,min=16"`

	// LockTTL bounds how long a job lock survives a crashed holder.
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	// LocalSchedule, when non-empty, enables the in-process cron loop that
	// invokes the jobs on the given spec (e.g. "*/15 * * * *"). Intended for
	// single-instance self-hosted deployments without an external scheduler.
	LocalSchedule string `mapstructure:"local_schedule"`
}

// RateLimitConfig allows overriding the built-in policy presets.
// Zero values fall back to the defaults in the ratelimit package.
type RateLimitConfig struct {
	GeneralLimit  int           `mapstructure:"general_limit"`
	GeneralWindow time.Duration `mapstructure:"general_window"`
	JobsLimit     int           `mapstructure:"jobs_limit"`
	JobsWindow    time.Duration `mapstructure:"jobs_window"`
}
