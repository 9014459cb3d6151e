package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads an optional TOML tunables file at path, merges it on top of the
// built-in defaults, applies ENGINE_*/POSTGRES_*/REDIS_*/exchange credential
// environment variable overrides, and returns the final Config. The
// returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads the well-known environment variables from  and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file, and env vars always win (applied last).
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setStr(&cfg.Engine.Mode, "ENGINE_MODE")
	setBool(&cfg.Engine.ExecuteSignals, "ENGINE_EXECUTE_SIGNALS")
	setStr(&cfg.Engine.LiveConfirm, "ENGINE_LIVE_CONFIRM")
	setStr(&cfg.Engine.UserID, "ENGINE_USER_ID")
	setStr(&cfg.Engine.OMSBaseURL, "ENGINE_OMS_BASE")
	setStr(&cfg.Engine.OMSToken, "ENGINE_OMS_TOKEN")
	setStr(&cfg.Engine.RiskBaseURL, "ENGINE_RISK_BASE")

	// ── Postgres ──
	setStr(&cfg.Postgres.Host, "POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POSTGRES_PORT")
	setStr(&cfg.Postgres.User, "POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.Database, "POSTGRES_DB")

	// ── Redis ──
	setStr(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setStr(&cfg.S3.Region, "S3_REGION")
	setStr(&cfg.S3.Bucket, "S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	setBool(&cfg.S3.Enabled, "S3_ENABLED")

	// ── Exchange credentials ──
	setExchangeCredential(&cfg.Exchange.Binance, "BINANCE")
	setExchangeCredential(&cfg.Exchange.Okx, "OKX")
	setExchangeCredential(&cfg.Exchange.Bybit, "BYBIT")
	setExchangeCredential(&cfg.Exchange.Gate, "GATE")
	setExchangeCredential(&cfg.Exchange.Bitget, "BITGET")
	setExchangeCredential(&cfg.Exchange.Mexc, "MEXC")
	setStringSlice(&cfg.Exchange.Symbols, "ENGINE_SYMBOLS")

	// ── Strategy tuning ──
	setFloat64(&cfg.Strategy.FeeRate, "ENGINE_FEE_RATE")
	setFloat64(&cfg.Strategy.MinProfitRate, "ENGINE_MIN_PROFIT_RATE")
	setFloat64(&cfg.Strategy.MinAPR, "ENGINE_MIN_APR")
	setFloat64(&cfg.Strategy.ZScoreThreshold, "ENGINE_Z_SCORE_THRESHOLD")
	setInt(&cfg.Strategy.PairWindow, "ENGINE_PAIR_WINDOW")
	setInt(&cfg.Strategy.GraphEdgeMaxAgeS, "ENGINE_GRAPH_EDGE_MAX_AGE_SECONDS")

	setStr(&cfg.LogLevel, "ENGINE_LOG_LEVEL")
}

// setExchangeCredential reads "<prefix>_API_KEY", "<prefix>_API_SECRET", and
// "<prefix>_API_PASSPHRASE" for a given venue prefix like "BINANCE".
func setExchangeCredential(dst *ExchangeCredential, prefix string) {
	setStr(&dst.APIKey, prefix+"_API_KEY")
	setStr(&dst.APISecret, prefix+"_API_SECRET")
	setStr(&dst.Passphrase, prefix+"_API_PASSPHRASE")
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
