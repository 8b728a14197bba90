// Package config loads service settings from defaults, an optional TOML file and the
// environment, in that order.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that reads "15m" style strings from TOML and env.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type ResultsConfig struct {
	MaxEntries int      `toml:"max_entries" env:"RESULTS_MAX_ENTRIES"`
	TTL        Duration `toml:"ttl" env:"RESULTS_TTL"`
}

type CacheConfig struct {
	Size int      `toml:"size" env:"CACHE_SIZE"`
	TTL  Duration `toml:"ttl" env:"CACHE_TTL"`
}

type RateLimitConfig struct {
	RedisAddr         string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword     string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB           int    `toml:"redis_db" env:"REDIS_DB"`
	SubmitLimitPerMin int    `toml:"submit_limit_per_min" env:"SUBMIT_LIMIT_PER_MIN"`
	BurstMultiplier   int    `toml:"burst_multiplier" env:"RATE_LIMIT_BURST_MULTIPLIER"`
}

type SecurityConfig struct {
	MaxBodyBytes   int64    `toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	RequestTimeout Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	EnableHSTS     bool     `toml:"enable_hsts" env:"ENABLE_HSTS"`
}

// Config is the full service configuration.
type Config struct {
	Port         string `toml:"port" env:"PORT"`
	SuitesDir    string `toml:"suites_dir" env:"SUITES_DIR"`
	AdConfigPath string `toml:"ad_config_path" env:"AD_CONFIG_PATH"`
	PublicDir    string `toml:"public_dir" env:"PUBLIC_DIR"`
	LogLevel     string `toml:"log_level" env:"LOG_LEVEL"`
	WatchSuites  bool   `toml:"watch_suites" env:"WATCH_SUITES"`

	Results   ResultsConfig   `toml:"results"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Security  SecurityConfig  `toml:"security"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:         "3000",
		SuitesDir:    "./question-suites",
		AdConfigPath: "./config/ad-config.json",
		PublicDir:    "./public",
		LogLevel:     "info",
		Results: ResultsConfig{
			MaxEntries: 10000,
			TTL:        Duration(24 * time.Hour),
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  Duration(15 * time.Minute),
		},
		RateLimit: RateLimitConfig{
			SubmitLimitPerMin: 30,
			BurstMultiplier:   2,
		},
		Security: SecurityConfig{
			MaxBodyBytes:   1 << 20,
			RequestTimeout: Duration(30 * time.Second),
		},
	}
}

// Load builds a Config. path may be empty; a missing file at a non-empty path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if strings.TrimSpace(c.SuitesDir) == "" {
		return fmt.Errorf("suites_dir is required")
	}
	if c.Results.MaxEntries <= 0 {
		return fmt.Errorf("results.max_entries must be positive")
	}
	if c.Results.TTL <= 0 {
		return fmt.Errorf("results.ttl must be positive")
	}
	if c.Cache.Size <= 0 || c.Cache.TTL <= 0 {
		return fmt.Errorf("cache size and ttl must be positive")
	}
	if c.RateLimit.SubmitLimitPerMin <= 0 {
		return fmt.Errorf("rate_limit.submit_limit_per_min must be positive")
	}
	if c.Security.MaxBodyBytes <= 0 {
		return fmt.Errorf("security.max_body_bytes must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
