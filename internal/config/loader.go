package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSIM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.AlphaVantage.APIKey, "ARBSIM_ALPHAVANTAGE_API_KEY")
	setStr(&cfg.AlphaVantage.BaseURL, "ARBSIM_ALPHAVANTAGE_BASE_URL")
	setInt(&cfg.AlphaVantage.CallsPerMinute, "ARBSIM_ALPHAVANTAGE_CALLS_PER_MINUTE")

	setStringSlice(&cfg.Symbols, "ARBSIM_SYMBOLS")

	setStr(&cfg.Redis.Addr, "ARBSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSIM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSIM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSIM_REDIS_TLS_ENABLED")

	setStr(&cfg.Postgres.DSN, "ARBSIM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBSIM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSIM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSIM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSIM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSIM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSIM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSIM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSIM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSIM_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.S3.Endpoint, "ARBSIM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSIM_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSIM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSIM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSIM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSIM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSIM_S3_FORCE_PATH_STYLE")

	setFloat64(&cfg.Detection.MinProfitBps, "ARBSIM_DETECTION_MIN_PROFIT_BPS")
	setDuration(&cfg.Detection.Interval, "ARBSIM_DETECTION_INTERVAL")
	setDuration(&cfg.Detection.QuoteTTL, "ARBSIM_DETECTION_QUOTE_TTL")
	setDuration(&cfg.Detection.OpportunityTTL, "ARBSIM_DETECTION_OPPORTUNITY_TTL")
	setDuration(&cfg.Detection.LatencyTTL, "ARBSIM_DETECTION_LATENCY_TTL")

	setFloat64(&cfg.Execution.SuccessProbability, "ARBSIM_EXECUTION_SUCCESS_PROBABILITY")
	setFloat64(&cfg.Execution.SlippageMin, "ARBSIM_EXECUTION_SLIPPAGE_MIN")
	setFloat64(&cfg.Execution.SlippageMax, "ARBSIM_EXECUTION_SLIPPAGE_MAX")
	setInt(&cfg.Execution.HistoryCap, "ARBSIM_EXECUTION_HISTORY_CAP")
	setDuration(&cfg.Execution.Interval, "ARBSIM_EXECUTION_INTERVAL")

	setBool(&cfg.Archive.Enabled, "ARBSIM_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "ARBSIM_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "ARBSIM_ARCHIVE_INTERVAL")

	setBool(&cfg.Server.Enabled, "ARBSIM_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBSIM_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARBSIM_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBSIM_SERVER_CORS_ORIGINS")

	setStr(&cfg.Notify.TelegramToken, "ARBSIM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSIM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSIM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBSIM_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "ARBSIM_MODE")
	setStr(&cfg.LogLevel, "ARBSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
