package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inarbit/engine/internal/archive"
	s3blob "github.com/inarbit/engine/internal/blob/s3"
	"github.com/inarbit/engine/internal/cache/redis"
	"github.com/inarbit/engine/internal/config"
	"github.com/inarbit/engine/internal/domain"
	"github.com/inarbit/engine/internal/engine"
	"github.com/inarbit/engine/internal/exchange"
	"github.com/inarbit/engine/internal/executor"
	"github.com/inarbit/engine/internal/fanin"
	"github.com/inarbit/engine/internal/publish"
	"github.com/inarbit/engine/internal/risk"
	"github.com/inarbit/engine/internal/store/postgres"
	"github.com/inarbit/engine/internal/strategy"
)

// Dependencies bundles every concrete dependency the application needs,
// built by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	ConfigStore domain.StrategyConfigStore
	MetricStore domain.MetricStore
	SignalBus   domain.SignalBus
	Archiver    domain.SignalArchiver

	Connectors *exchange.Registry
	FanIn      *fanin.FanIn

	StrategyRegistry *strategy.Registry
	RiskGate         *risk.Gate
	Publisher        *publish.Publisher
	Executor         *executor.Executor
	ArchiveBatcher   *archive.Batcher

	Engine *engine.Engine
}

// venueCredential pairs an ExchangeID with its configured credential.
type venueCredential struct {
	id  domain.ExchangeID
	cfg config.ExchangeCredential
}

// Wire constructs every dependency from cfg and returns them together with a
// cleanup function that releases the Postgres, Redis and S3 clients in
// reverse acquisition order. Exchange connectors are not part of cleanup;
// they are closed through Dependencies.Connectors.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL: strategy config store ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.ConfigStore = postgres.NewStrategyConfigStore(pgClient.Pool())

	// --- Redis: metric store + signal bus ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.MetricStore = redis.NewMetricStore(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3: signal archiver (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		writer := s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewSignalArchiver(writer)
	}
	deps.ArchiveBatcher = archive.New(deps.Archiver, logger)

	// --- Exchange connectors ---
	deps.Connectors = exchange.NewRegistry(logger)
	connected, err := startConnectors(ctx, deps.Connectors, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if len(connected) == 0 {
		cleanup()
		return nil, nil, exchange.ErrNoConnectors
	}

	deps.FanIn = fanin.New(ctx, deps.Connectors.All(), logger)

	// --- Strategy registry ---
	deps.StrategyRegistry = strategy.NewRegistry(logger)
	if err := deps.StrategyRegistry.Load(ctx, deps.ConfigStore, deps.MetricStore, connected); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load strategies: %w", err)
	}

	// --- Risk gate ---
	riskBase := cfg.Engine.RiskBaseURL
	if riskBase == "" {
		riskBase = cfg.Engine.OMSBaseURL
	}
	deps.RiskGate = risk.New(riskBase, cfg.Engine.OMSToken, logger)

	// --- Publisher ---
	deps.Publisher = publish.New(deps.SignalBus, deps.MetricStore, cfg.Engine.UserID, logger)

	// --- Executor ---
	var omsClient *executor.OMSClient
	if cfg.Engine.OMSBaseURL != "" {
		omsClient = executor.NewOMSClient(cfg.Engine.OMSBaseURL, cfg.Engine.OMSToken)
	}
	mode := executor.Simulation
	if cfg.Engine.Mode == "live" {
		mode = executor.Live
	}
	deps.Executor = executor.New(executor.Config{
		Mode:           mode,
		ExecuteSignals: cfg.Engine.ExecuteSignals,
		LiveConfirm:    cfg.Engine.LiveConfirm,
		UserID:         cfg.Engine.UserID,
		OMS:            omsClient,
		Bus:            deps.SignalBus,
		Metrics:        deps.MetricStore,
	}, logger)

	// --- Engine loop ---
	deps.Engine = engine.New(engine.Config{
		Registry:        deps.StrategyRegistry,
		RiskGate:        deps.RiskGate,
		Publisher:       deps.Publisher,
		Executor:        deps.Executor,
		Archiver:        deps.ArchiveBatcher,
		Bus:             deps.SignalBus,
		Tickers:         deps.FanIn.Out(),
		HeartbeatPeriod: cfg.Engine.HeartbeatPeriod.Duration,
	}, logger)

	return deps, cleanup, nil
}

// startConnectors starts one connector per venue with a non-empty
// credential and returns the exchanges that connected successfully.
func startConnectors(ctx context.Context, reg *exchange.Registry, cfg *config.Config, logger *slog.Logger) ([]domain.ExchangeID, error) {
	candidates := []venueCredential{
		{domain.Binance, cfg.Exchange.Binance},
		{domain.Okx, cfg.Exchange.Okx},
		{domain.Bybit, cfg.Exchange.Bybit},
		{domain.Gate, cfg.Exchange.Gate},
		{domain.Bitget, cfg.Exchange.Bitget},
		{domain.Mexc, cfg.Exchange.Mexc},
	}

	var connected []domain.ExchangeID
	for _, v := range candidates {
		if !v.cfg.Enabled() {
			continue
		}
		if _, err := reg.StartConnector(ctx, v.id, cfg.Exchange.Symbols); err != nil {
			logger.WarnContext(ctx, "connector start failed, skipping venue",
				slog.String("exchange", string(v.id)), slog.String("error", err.Error()))
			continue
		}
		connected = append(connected, v.id)
	}
	return connected, nil
}
