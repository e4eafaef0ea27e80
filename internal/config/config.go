// Package config loads and validates application configuration from
// environment variables and optional config files.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Study    StudyConfig    `mapstructure:"study"    validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for the HTTP surface.
type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret"          validate:"required,min=32"`
	TokenLifetimeMins int    `mapstructure:"token_lifetime_mins" validate:"required,gt=0"`
}

// StudyConfig tunes the session scheduler.
type StudyConfig struct {
	// SessionLimit caps how many cards a session queue is built from.
	SessionLimit int `mapstructure:"session_limit" validate:"required,gt=0"`

	// CheckpointEvery is how many answered cards pass between
	// breakpoint-hook invocations.
	CheckpointEvery int `mapstructure:"checkpoint_every" validate:"required,gt=0"`

	// PauseAtCheckpoints controls the default breakpoint verdict when
	// no hook is installed: true pauses the session at each checkpoint
	// until the client resumes, false lets it run through.
	PauseAtCheckpoints bool `mapstructure:"pause_at_checkpoints"`
}

// QuotaConfig sets the daily selection ceilings per subscription tier.
type QuotaConfig struct {
	FreeDailyCeiling    int `mapstructure:"free_daily_ceiling"    validate:"required,gt=0"`
	PremiumDailyCeiling int `mapstructure:"premium_daily_ceiling" validate:"required,gt=0"`
}
