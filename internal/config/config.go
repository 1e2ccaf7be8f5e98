package config

import (
	"errors"
	"fmt"
	"io/fs"
	_ "time/tzdata" // the timezone validator resolves names with time.LoadLocation

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "COXORB"

// Config holds the settings of the coxorb tool.
type Config struct {
	// Timezone the Cox Orb clock was set to; the performance log header is
	// local time in this zone.
	Timezone        string        `envconfig:"TIMEZONE" default:"UTC" validate:"required,timezone"`
	TrackFile       string        `envconfig:"TRACK_FILE"`
	PerformanceFile string        `envconfig:"PERFORMANCE_FILE"`
	Logging         LoggingConfig `envconfig:"LOG"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

// Load reads .env files (default ".env"; missing files are ignored), then the
// COXORB_* environment, and validates the result. Variables already present
// in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tag constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
