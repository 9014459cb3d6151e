// Package engine wires the strategy registry, risk gate, publisher, and
// executor into the per-ticker pipeline: single-writer dispatch,
// sequential per-signal processing, a periodic heartbeat, and a clean
// shutdown on cancellation.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/inarbit/engine/internal/archive"
	"github.com/inarbit/engine/internal/domain"
	"github.com/inarbit/engine/internal/executor"
	"github.com/inarbit/engine/internal/publish"
	"github.com/inarbit/engine/internal/risk"
	"github.com/inarbit/engine/internal/strategy"
)

// defaultHeartbeatPeriod is used when Config.HeartbeatPeriod is zero.
const defaultHeartbeatPeriod = 5 * time.Second

// Config wires every collaborator the engine loop needs.
type Config struct {
	Registry        *strategy.Registry
	RiskGate        *risk.Gate
	Publisher       *publish.Publisher
	Executor        *executor.Executor
	Archiver        *archive.Batcher
	Bus             domain.SignalBus
	Tickers         <-chan domain.Ticker
	HeartbeatPeriod time.Duration
}

// Engine runs the main loop: one ticker in, zero or more signals out, each
// signal pushed sequentially through risk → publish → archive → execute.
type Engine struct {
	registry        *strategy.Registry
	riskGate        *risk.Gate
	publisher       *publish.Publisher
	executor        *executor.Executor
	archiver        *archive.Batcher
	bus             domain.SignalBus
	tickers         <-chan domain.Ticker
	heartbeatPeriod time.Duration
	logger          *slog.Logger
}

// New builds an Engine from cfg.
func New(cfg Config, logger *slog.Logger) *Engine {
	period := cfg.HeartbeatPeriod
	if period <= 0 {
		period = defaultHeartbeatPeriod
	}
	return &Engine{
		registry:        cfg.Registry,
		riskGate:        cfg.RiskGate,
		publisher:       cfg.Publisher,
		executor:        cfg.Executor,
		archiver:        cfg.Archiver,
		bus:             cfg.Bus,
		tickers:         cfg.Tickers,
		heartbeatPeriod: period,
		logger:          logger.With(slog.String("component", "engine")),
	}
}

// Run consumes tickers until ctx is cancelled or the channel closes. It
// blocks. On return, every loaded strategy has been shut down.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "engine started", slog.Int("strategies", e.registry.Len()))
	defer e.registry.Shutdown()
	defer e.logger.InfoContext(ctx, "engine stopped")

	hb := time.NewTicker(e.heartbeatPeriod)
	defer hb.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hb.C:
			e.heartbeat(ctx)
		case t, ok := <-e.tickers:
			if !ok {
				return nil
			}
			e.handleTicker(ctx, t)
		}
	}
}

// handleTicker dispatches one ticker through every loaded strategy and
// drives each emitted signal through the sequential pipeline: the
// registry holds its lock for the full pass; each signal is processed one
// at a time, in emission order, no concurrent fan-out.
func (e *Engine) handleTicker(ctx context.Context, t domain.Ticker) {
	signals := e.registry.Dispatch(t)
	for _, sig := range signals {
		e.handleSignal(ctx, sig)
	}
}

func (e *Engine) handleSignal(ctx context.Context, sig domain.Signal) {
	allowed := e.riskGate.Evaluate(ctx, sig)
	if !allowed {
		if err := e.publisher.PublishBlocked(ctx, sig); err != nil {
			e.logger.WarnContext(ctx, "publish blocked signal failed", slog.String("error", err.Error()))
		}
		if e.archiver != nil {
			e.archiver.Add(sig, true)
		}
		return
	}

	if err := e.publisher.Publish(ctx, sig); err != nil {
		e.logger.WarnContext(ctx, "publish signal failed", slog.String("error", err.Error()))
	}
	if e.archiver != nil {
		e.archiver.Add(sig, false)
	}

	if e.executor == nil {
		return
	}
	result, err := e.executor.Execute(ctx, sig)
	if err != nil {
		e.logger.WarnContext(ctx, "execute signal failed",
			slog.String("strategy_id", sig.StrategyID),
			slog.String("error", err.Error()))
		return
	}
	e.logger.InfoContext(ctx, "signal executed",
		slog.String("strategy_id", sig.StrategyID),
		slog.Bool("success", result.Success),
		slog.Float64("net_profit", result.NetProfit))
}

type heartbeatPayload struct {
	Status     string `json:"status"`
	Strategies int    `json:"strategies"`
	Timestamp  int64  `json:"timestamp"`
}

// heartbeat publishes a liveness event every HeartbeatPeriod. A publish
// failure is logged and swallowed like every other non-critical bus write.
func (e *Engine) heartbeat(ctx context.Context) {
	if e.bus == nil {
		return
	}
	payload, err := json.Marshal(heartbeatPayload{
		Status:     "ok",
		Strategies: e.registry.Len(),
		Timestamp:  time.Now().UnixMilli(),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "marshal heartbeat failed", slog.String("error", err.Error()))
		return
	}
	if err := e.bus.Publish(ctx, "log:info", payload); err != nil {
		e.logger.WarnContext(ctx, "publish heartbeat failed", slog.String("error", err.Error()))
	}
}
