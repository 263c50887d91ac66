// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NYT      NYTConfig      `mapstructure:"nyt"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// NYTConfig holds the NYT games service endpoints and session credentials.
// The cookie is the archive owner's browser session, passed through as-is.
type NYTConfig struct {
	PuzzleBaseURL  string        `mapstructure:"puzzle_base_url"`
	StateBaseURL   string        `mapstructure:"state_base_url"`
	Cookie         string        `mapstructure:"cookie"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LookupRate     float64       `mapstructure:"lookup_rate"`
}

// SyncConfig holds sync engine tuning.
type SyncConfig struct {
	BatchSize         int    `mapstructure:"batch_size"`
	LookbackDays      int    `mapstructure:"lookback_days"`
	StartDate         string `mapstructure:"start_date"`
	Timezone          string `mapstructure:"timezone"`
	LookupConcurrency int    `mapstructure:"lookup_concurrency"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., SERVER_PORT, DATABASE_HOST, NYT_COOKIE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost", "http://localhost:8080"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wordle")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "wordle_archive")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// NYT service defaults
	v.SetDefault("nyt.puzzle_base_url", "https://www.nytimes.com/svc/wordle/v2")
	v.SetDefault("nyt.state_base_url", "https://www.nytimes.com/svc/games/state/wordleV2/latests")
	v.SetDefault("nyt.cookie", "")
	v.SetDefault("nyt.request_timeout", "10s")
	v.SetDefault("nyt.lookup_rate", 5)

	// Sync defaults. start_date is the first Wordle day the reference
	// archive covers; lookback_days overrides it when non-zero.
	v.SetDefault("sync.batch_size", 20)
	v.SetDefault("sync.lookback_days", 0)
	v.SetDefault("sync.start_date", "2021-06-19")
	v.SetDefault("sync.timezone", "America/New_York")
	v.SetDefault("sync.lookup_concurrency", 4)
}

// validate checks values that would only fail deep inside the sync engine.
func (c *Config) validate() error {
	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("sync.batch_size must be at least 1, got %d", c.Sync.BatchSize)
	}
	if c.Sync.LookupConcurrency < 1 {
		return fmt.Errorf("sync.lookup_concurrency must be at least 1, got %d", c.Sync.LookupConcurrency)
	}
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("invalid sync.timezone: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Sync.StartDate); err != nil {
		return fmt.Errorf("invalid sync.start_date: %w", err)
	}
	return nil
}
