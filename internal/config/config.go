// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Non-secret tunables are
// populated from an optional TOML file on top of Defaults(); ENGINE_*,
// POSTGRES_*, REDIS_*, and per-exchange credential environment variables
// are then applied last and take priority over both.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Exchange ExchangeConfig `toml:"exchange"`
	Strategy StrategyTuning `toml:"strategy"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds execution-mode gates and downstream service endpoints.
type EngineConfig struct {
	Mode            string        `toml:"mode"`             // "simulation" or "live"
	ExecuteSignals  bool          `toml:"execute_signals"`  // gate for live execution
	LiveConfirm     string        `toml:"live_confirm"`     // must equal "CONFIRM_LIVE"
	UserID          string        `toml:"user_id"`          // prefixes per-user pub/sub channel
	OMSBaseURL      string        `toml:"oms_base_url"`
	OMSToken        string        `toml:"oms_token"`
	RiskBaseURL     string        `toml:"risk_base_url"` // falls back to OMSBaseURL when empty
	HeartbeatPeriod duration      `toml:"heartbeat_period"`
}

// PostgresConfig holds the strategy config store connection parameters.
type PostgresConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	Database      string `toml:"database"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the metric store / signal bus connection parameters.
type RedisConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// S3Config holds the signal archive object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Enabled        bool   `toml:"enabled"`
}

// ExchangeCredential holds the API key/secret/passphrase used to enable a
// connector. The engine only subscribes to public market-data streams, so
// these values gate connector enablement (a connector starts only once its
// venue has a non-empty key) rather than authenticating requests.
type ExchangeCredential struct {
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Passphrase string `toml:"passphrase"`
}

// Enabled reports whether this venue has a usable credential.
func (c ExchangeCredential) Enabled() bool { return c.APIKey != "" }

// ExchangeConfig holds per-venue credentials and the symbol universe to
// subscribe to on each enabled venue.
type ExchangeConfig struct {
	Binance ExchangeCredential `toml:"binance"`
	Okx     ExchangeCredential `toml:"okx"`
	Bybit   ExchangeCredential `toml:"bybit"`
	Gate    ExchangeCredential `toml:"gate"`
	Bitget  ExchangeCredential `toml:"bitget"`
	Mexc    ExchangeCredential `toml:"mexc"`

	Symbols []string `toml:"symbols"`
}

// StrategyTuning holds a per-leg fee and default strategy thresholds. They
// are loaded from TOML and the environment and checked by Validate, but the
// strategy registry does not read them: both store-loaded and synthesized
// strategies take their thresholds from StrategyConfig.Config and fall back
// to the defaults built into each strategy.
type StrategyTuning struct {
	FeeRate          float64 `toml:"fee_rate"`
	MinProfitRate    float64 `toml:"min_profit_rate"`
	MinAPR           float64 `toml:"min_apr"`
	ZScoreThreshold  float64 `toml:"z_score_threshold"`
	PairWindow       int     `toml:"pair_window"`
	GraphEdgeMaxAgeS int     `toml:"graph_edge_max_age_seconds"`
	DefaultCapital   float64 `toml:"default_capital_percent"`
	DefaultPerTrade  float64 `toml:"default_per_trade_limit"`
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
		Engine: EngineConfig{
			Mode:            "simulation",
			ExecuteSignals:  false,
			HeartbeatPeriod: duration{5 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "postgres",
			Database:      "engine",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Host:       "localhost",
			Port:       6379,
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "engine-signals",
			UseSSL:         false,
			ForcePathStyle: true,
			Enabled:        false,
		},
		Exchange: ExchangeConfig{
			Symbols: []string{"BTCUSDT", "ETHUSDT", "ETHBTC", "BNBUSDT", "BNBBTC"},
		},
		Strategy: StrategyTuning{
			FeeRate:          0.001,
			MinProfitRate:    0.001,
			MinAPR:           0.10,
			ZScoreThreshold:  2.0,
			PairWindow:       100,
			GraphEdgeMaxAgeS: 600,
			DefaultCapital:   0.05,
			DefaultPerTrade:  100.0,
		},
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"simulation": true,
	"live":       true,
}

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

	if !validModes[strings.ToLower(c.Engine.Mode)] {
		errs = append(errs, fmt.Sprintf("engine: unknown mode %q (valid: simulation, live)", c.Engine.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if strings.EqualFold(c.Engine.Mode, "live") {
		if !c.Engine.ExecuteSignals {
			errs = append(errs, "engine: execute_signals must be true for live mode")
		}
		if c.Engine.LiveConfirm != "CONFIRM_LIVE" {
			errs = append(errs, "engine: live_confirm must equal CONFIRM_LIVE for live mode")
		}
		if c.Engine.OMSBaseURL == "" {
			errs = append(errs, "engine: oms_base_url is required for live mode")
		}
	}

	if c.Postgres.Host == "" {
		errs = append(errs, "postgres: host must not be empty")
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
	}
	if c.Postgres.Database == "" {
		errs = append(errs, "postgres: database must not be empty")
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must be >= 0 and <= pool_max_conns")
	}

	if c.Redis.Host == "" {
		errs = append(errs, "redis: host must not be empty")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("redis: port must be 1-65535, got %d", c.Redis.Port))
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
	}

	if !anyExchangeEnabled(c.Exchange) {
		errs = append(errs, "exchange: at least one venue credential must be set, no exchanges would connect")
	}
	if len(c.Exchange.Symbols) == 0 {
		errs = append(errs, "exchange: symbols must not be empty")
	}

	if c.Strategy.FeeRate < 0 {
		errs = append(errs, "strategy: fee_rate must be >= 0")
	}
	if c.Strategy.MinProfitRate <= 0 {
		errs = append(errs, "strategy: min_profit_rate must be > 0")
	}
	if c.Strategy.PairWindow < 2 {
		errs = append(errs, "strategy: pair_window must be >= 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func anyExchangeEnabled(e ExchangeConfig) bool {
	return e.Binance.Enabled() || e.Okx.Enabled() || e.Bybit.Enabled() ||
		e.Gate.Enabled() || e.Bitget.Enabled() || e.Mexc.Enabled()
}
