// Package executor hands signals off to execution: a fabricated fill in
// simulation mode, or the external Order Management Service in live mode.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/inarbit/engine/internal/domain"
)

const simulatedFee = 0.1

// Mode selects whether the executor fabricates fills or calls out to a real
// OMS.
type Mode string

const (
	Simulation Mode = "simulation"
	Live       Mode = "live"
)

// Executor routes a signal to a fill, simulated or live. Live-mode gates
// are read once at construction and cached as booleans, deliberately
// avoiding the TOCTOU window of re-reading environment variables on every
// call.
type Executor struct {
	mode Mode

	executeSignals bool
	liveConfirmed  bool

	oms     *OMSClient
	bus     domain.SignalBus
	metrics domain.MetricStore
	userID  string
	logger  *slog.Logger
}

// Config carries the live-mode env gates and OMS wiring, read once at
// construction time.
type Config struct {
	Mode            Mode
	ExecuteSignals  bool
	LiveConfirm     string
	UserID          string
	OMS             *OMSClient
	Bus             domain.SignalBus
	Metrics         domain.MetricStore
}

// New builds an Executor from cfg. The two live-mode gates
// (ExecuteSignals && LiveConfirm == "CONFIRM_LIVE") are evaluated here,
// once, for the lifetime of the executor.
func New(cfg Config, logger *slog.Logger) *Executor {
	return &Executor{
		mode:            cfg.Mode,
		executeSignals:  cfg.ExecuteSignals,
		liveConfirmed:   cfg.LiveConfirm == "CONFIRM_LIVE",
		oms:             cfg.OMS,
		bus:             cfg.Bus,
		metrics:         cfg.Metrics,
		userID:          cfg.UserID,
		logger:          logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the full sequence for an allowed signal. In simulation mode
// it always succeeds with a fabricated fill; in live mode it refuses
// outright unless both gates were confirmed at construction.
func (e *Executor) Execute(ctx context.Context, signal domain.Signal) (domain.ExecutionResult, error) {
	if e.mode != Live {
		return e.simulate(signal), nil
	}

	if !e.executeSignals || !e.liveConfirmed {
		return domain.ExecutionResult{}, domain.ErrLiveNotConfirmed
	}
	if e.oms == nil {
		return domain.ExecutionResult{}, domain.ErrOMSNotConfigured
	}

	return e.executeLive(ctx, signal)
}

func (e *Executor) simulate(signal domain.Signal) domain.ExecutionResult {
	symbol := firstSymbolFromPath(signal.Path)
	order := domain.OrderResponse{
		OrderID:      "SIMULATED-" + signal.StrategyID,
		Exchange:     signal.Exchange,
		Symbol:       symbol,
		Side:         domain.Buy,
		Status:       domain.OrderFilled,
		FilledAmount: signal.ExpectedProfit,
		Fee:          simulatedFee,
	}

	return domain.ExecutionResult{
		Signal:    signal,
		Orders:    []domain.OrderResponse{order},
		TotalFee:  simulatedFee,
		NetProfit: signal.ExpectedProfit - simulatedFee,
		Success:   true,
	}
}

func (e *Executor) executeLive(ctx context.Context, signal domain.Signal) (domain.ExecutionResult, error) {
	riskScore := calcRiskScore(signal.ProfitRate)
	payload := buildDecisionPayload(signal, riskScore)

	if e.metrics != nil {
		if err := e.metrics.PublishDecision(ctx, payload, riskScore); err != nil {
			e.logger.WarnContext(ctx, "decision publish failed", slog.String("error", err.Error()))
		}
	}
	if e.bus != nil {
		channel := signalChannel(e.userID, signal.StrategyType)
		if err := e.bus.Publish(ctx, channel, payload); err != nil {
			e.logger.WarnContext(ctx, "signal publish failed", slog.String("error", err.Error()))
		}
	}

	idempotencyKey := fmt.Sprintf("engine:%s:%d", signal.StrategyID, signal.Timestamp)
	resp, err := e.oms.ExecuteLatest(ctx, OMSExecuteRequest{
		TradingMode:    "live",
		ConfirmLive:    true,
		IdempotencyKey: idempotencyKey,
		Limit:          1,
	})
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("executor: oms execute_latest: %w", err)
	}
	if !resp.Success {
		return domain.ExecutionResult{}, fmt.Errorf("executor: oms execute_latest: reported failure")
	}

	return domain.ExecutionResult{
		Signal:  signal,
		Success: true,
	}, nil
}

// calcRiskScore mirrors min(max(1-profit_rate, 0.01) * 1000, 1000): the
// 0.01 floor is applied to (1 - profit_rate) before the *1000 scale.
func calcRiskScore(profitRate float64) float64 {
	base := 1 - profitRate
	if base < 0.01 {
		base = 0.01
	}
	score := base * 1000
	return math.Min(score, 1000)
}

type decisionPayload struct {
	StrategyType        string  `json:"strategyType"`
	Exchange            string  `json:"exchange"`
	Symbol              string  `json:"symbol"`
	Direction           string  `json:"direction"`
	ExpectedProfit      float64 `json:"expectedProfit"`
	ExpectedProfitRate  float64 `json:"expectedProfitRate"`
	EstimatedExposure   float64 `json:"estimatedExposure"`
	RiskScore           float64 `json:"riskScore"`
	Confidence          float64 `json:"confidence"`
	Timestamp           int64   `json:"timestamp"`
	RawOpportunity      rawOpportunity `json:"rawOpportunity"`
}

type rawOpportunity struct {
	Path    string   `json:"path"`
	Symbols []string `json:"symbols"`
}

func buildDecisionPayload(signal domain.Signal, riskScore float64) []byte {
	symbols := parseSymbolsFromPath(signal.Path)
	symbol := ""
	if len(symbols) > 0 {
		symbol = symbols[0]
	}

	p := decisionPayload{
		StrategyType:       string(signal.StrategyType),
		Exchange:           string(signal.Exchange),
		Symbol:             symbol,
		Direction:          "neutral",
		ExpectedProfit:     signal.ExpectedProfit,
		ExpectedProfitRate: signal.ProfitRate,
		EstimatedExposure:  0,
		RiskScore:          riskScore,
		Confidence:         signal.Confidence,
		Timestamp:          signal.Timestamp,
		RawOpportunity:     rawOpportunity{Path: signal.Path, Symbols: symbols},
	}

	data, err := json.Marshal(p)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func signalChannel(userID string, strategyType domain.StrategyType) string {
	lower := strings.ToLower(string(strategyType))
	if userID == "" {
		return "signal:" + lower
	}
	return fmt.Sprintf("signal:%s:%s", userID, lower)
}

// firstSymbolFromPath is used in simulation mode: it canonicalizes the path
// with parseSymbolsFromPath and returns only the first symbol.
func firstSymbolFromPath(path string) string {
	symbols := parseSymbolsFromPath(path)
	if len(symbols) == 0 {
		return ""
	}
	return symbols[0]
}

// parseSymbolsFromPath canonicalizes a human-readable path (e.g.
// "BTCUSDT → ETHBTC → ETHUSDT" or "BTCUSDT->ETHBTC->ETHUSDT") into its
// constituent symbols, trimming whitespace and trailing commas from each
// segment. Paths are displayed with the unicode arrow but must be
// canonicalized to the ASCII form before being handed to the OMS.
func parseSymbolsFromPath(path string) []string {
	normalized := strings.ReplaceAll(path, "→", "->")
	parts := strings.Split(normalized, "->")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		s = strings.TrimRight(s, ",")
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
