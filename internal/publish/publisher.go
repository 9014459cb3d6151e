// Package publish implements the signal publisher: the side effects every
// signal triggers on the pub/sub bus and metric store before reaching the
// executor.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inarbit/engine/internal/domain"
)

// Publisher emits signals to the pub/sub bus and records engine/strategy
// metrics, for both allowed and risk-blocked signals.
type Publisher struct {
	bus     domain.SignalBus
	metrics domain.MetricStore
	userID  string
	logger  *slog.Logger
}

// New builds a Publisher. userID is ENGINE_USER_ID; an empty value falls
// back to the unprefixed channel name.
func New(bus domain.SignalBus, metrics domain.MetricStore, userID string, logger *slog.Logger) *Publisher {
	return &Publisher{
		bus:     bus,
		metrics: metrics,
		userID:  userID,
		logger:  logger.With(slog.String("component", "publish.publisher")),
	}
}

// Publish performs the full side-effect sequence for an allowed signal:
// publish to the per-user channel, then update counters and liveness
// hashes. Metric store failures are logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, signal domain.Signal) error {
	return p.emit(ctx, signal, false)
}

// PublishBlocked mirrors Publish for a signal the risk gate rejected,
// using the "blocked_*" metric key family. It does not publish the signal
// itself on the pub/sub channel.
func (p *Publisher) PublishBlocked(ctx context.Context, signal domain.Signal) error {
	if p.metrics == nil {
		return nil
	}
	if err := p.metrics.RecordSignal(ctx, signal.StrategyType, true); err != nil {
		p.logger.WarnContext(ctx, "blocked signal metrics write failed", slog.String("error", err.Error()))
	}
	return nil
}

func (p *Publisher) emit(ctx context.Context, signal domain.Signal, blocked bool) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("publish: marshal signal: %w", err)
	}

	if p.bus != nil {
		channel := p.channelName(signal.StrategyType)
		if err := p.bus.Publish(ctx, channel, payload); err != nil {
			p.logger.WarnContext(ctx, "signal publish failed", slog.String("channel", channel), slog.String("error", err.Error()))
		}
	}

	if p.metrics != nil {
		if err := p.metrics.RecordSignal(ctx, signal.StrategyType, blocked); err != nil {
			p.logger.WarnContext(ctx, "signal metrics write failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// channelName builds signal:<user>:<strategy_type_lower>, or
// signal:<strategy_type_lower> when no user id is configured.
func (p *Publisher) channelName(strategyType domain.StrategyType) string {
	lower := strings.ToLower(string(strategyType))
	if p.userID == "" {
		return "signal:" + lower
	}
	return fmt.Sprintf("signal:%s:%s", p.userID, lower)
}
