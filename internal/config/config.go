// Package config defines the top-level configuration for arbsim and provides
// validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBSIM_* environment variables.
type Config struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
	Symbols      []string           `toml:"symbols"`
	Venues       []VenueConfig      `toml:"venues"`
	Redis        RedisConfig        `toml:"redis"`
	Postgres     PostgresConfig     `toml:"postgres"`
	S3           S3Config           `toml:"s3"`
	Detection    DetectionConfig    `toml:"detection"`
	Execution    ExecutionConfig    `toml:"execution"`
	Archive      ArchiveConfig      `toml:"archive"`
	Server       ServerConfig       `toml:"server"`
	Notify       NotifyConfig       `toml:"notify"`
	Mode         string             `toml:"mode"`
	LogLevel     string             `toml:"log_level"`
}

// AlphaVantageConfig holds quote-source API parameters.
type AlphaVantageConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	CallsPerMinute int    `toml:"calls_per_minute"`
}

// VenueConfig describes one synthetic venue. Order in the TOML array is the
// fixed venue priority order used to break detection ties. OffsetMin and
// OffsetMax are multiplicative bounds applied to the reference price
// (e.g. 0.9985 / 1.0015 for roughly +/- 0.15%).
type VenueConfig struct {
	Name      string  `toml:"name"`
	OffsetMin float64 `toml:"offset_min"`
	OffsetMax float64 `toml:"offset_max"`
	Endpoint  string  `toml:"endpoint"` // host:port probed by the latency monitor
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds trade-archive database parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for trade archives.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// DetectionConfig holds the detection-cycle parameters.
type DetectionConfig struct {
	// MinProfitBps is the publication threshold: candidates below it are
	// discarded, not stored.
	MinProfitBps    float64  `toml:"min_profit_bps"`
	Interval        duration `toml:"interval"`
	QuoteTTL        duration `toml:"quote_ttl"`
	OpportunityTTL  duration `toml:"opportunity_ttl"`
	LatencyTTL      duration `toml:"latency_ttl"`
	QuoteHistoryCap int      `toml:"quote_history_cap"`
}

// ExecutionConfig holds the paper execution engine parameters.
type ExecutionConfig struct {
	SuccessProbability float64  `toml:"success_probability"`
	SlippageMin        float64  `toml:"slippage_min"`
	SlippageMax        float64  `toml:"slippage_max"`
	HistoryCap         int      `toml:"history_cap"`
	Interval           duration `toml:"interval"`
	LockTTL            duration `toml:"lock_ttl"`
}

// ArchiveConfig holds blob-archiver parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		AlphaVantage: AlphaVantageConfig{
			BaseURL:        "https://www.alphavantage.co/query",
			CallsPerMinute: 5,
		},
		Symbols: []string{
			"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA",
			"META", "NVDA", "NFLX", "AMD", "CRM",
		},
		Venues: []VenueConfig{
			{Name: "NYSE", OffsetMin: 0.9985, OffsetMax: 1.0015, Endpoint: "nyse.example.com:443"},
			{Name: "NASDAQ", OffsetMin: 0.9990, OffsetMax: 1.0020, Endpoint: "nasdaq.example.com:443"},
			{Name: "BATS", OffsetMin: 0.9980, OffsetMax: 1.0010, Endpoint: "bats.example.com:443"},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbsim",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbsim-archive",
			ForcePathStyle: true,
		},
		Detection: DetectionConfig{
			MinProfitBps:    5.0,
			Interval:        duration{5 * time.Minute},
			QuoteTTL:        duration{30 * time.Minute},
			OpportunityTTL:  duration{30 * time.Minute},
			LatencyTTL:      duration{5 * time.Minute},
			QuoteHistoryCap: 100,
		},
		Execution: ExecutionConfig{
			SuccessProbability: 0.95,
			SlippageMin:        0.001,
			SlippageMax:        0.003,
			HistoryCap:         100,
			Interval:           duration{30 * time.Second},
			LockTTL:            duration{1 * time.Minute},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_detected", "trade_executed", "trade_failed"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"collect": true,
	"trade":   true,
	"monitor": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: collect, trade, monitor, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	needsQuotes := c.Mode == "collect" || c.Mode == "full"
	if needsQuotes && c.AlphaVantage.APIKey == "" {
		errs = append(errs, "alphavantage: api_key is required for mode "+c.Mode)
	}
	if c.AlphaVantage.BaseURL == "" {
		errs = append(errs, "alphavantage: base_url must not be empty")
	}
	if c.AlphaVantage.CallsPerMinute < 1 {
		errs = append(errs, "alphavantage: calls_per_minute must be >= 1")
	}

	if len(c.Symbols) == 0 {
		errs = append(errs, "symbols: at least one symbol is required")
	}
	if len(c.Venues) < 2 {
		errs = append(errs, "venues: at least two venues are required for cross-venue detection")
	}
	seen := map[string]bool{}
	for i, v := range c.Venues {
		if v.Name == "" {
			errs = append(errs, fmt.Sprintf("venues[%d]: name must not be empty", i))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Sprintf("venues: duplicate venue %q", v.Name))
		}
		seen[v.Name] = true
		if v.OffsetMin <= 0 || v.OffsetMax <= 0 {
			errs = append(errs, fmt.Sprintf("venues[%s]: offset bounds must be positive multipliers", v.Name))
		}
		if v.OffsetMin > v.OffsetMax {
			errs = append(errs, fmt.Sprintf("venues[%s]: offset_min must not exceed offset_max", v.Name))
		}
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1 when enabled")
		}
	}

	if c.Detection.MinProfitBps < 0 {
		errs = append(errs, "detection: min_profit_bps must not be negative")
	}
	if c.Detection.QuoteHistoryCap < 1 {
		errs = append(errs, "detection: quote_history_cap must be >= 1")
	}

	if c.Execution.SuccessProbability < 0 || c.Execution.SuccessProbability > 1 {
		errs = append(errs, fmt.Sprintf("execution: success_probability must be in [0,1], got %g", c.Execution.SuccessProbability))
	}
	if c.Execution.SlippageMin < 0 {
		errs = append(errs, "execution: slippage_min must not be negative")
	}
	if c.Execution.SlippageMin > c.Execution.SlippageMax {
		errs = append(errs, "execution: slippage_min must not exceed slippage_max")
	}
	if c.Execution.HistoryCap < 1 {
		errs = append(errs, "execution: history_cap must be >= 1")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
