package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

const (
	fundingSettlementsPerDay = 3
	fundingDaysPerYear       = 365
)

type fundingRate struct {
	rate       float64
	nextTimeMS int64
}

// fundingRateStrategy carries a funding-rate arbitrage signal. It has no
// observed data source in the core engine loop: rates only change through
// UpdateFundingRate, an out-of-band entry point nothing currently calls.
// Treat that as a planned ingestion point rather than a bug.
type fundingRateStrategy struct {
	id            string
	cfg           domain.StrategyConfig
	logger        *slog.Logger
	minAPR        float64
	holdingDays   float64

	mu     sync.Mutex
	rates  map[string]fundingRate
	prices map[string]float64
}

func newFundingRateStrategy(cfg domain.StrategyConfig, logger *slog.Logger) *fundingRateStrategy {
	return &fundingRateStrategy{
		id:          cfg.ID,
		cfg:         cfg,
		logger:      logger.With(slog.String("strategy", "funding_rate"), slog.String("strategy_id", cfg.ID)),
		minAPR:      configFloat(cfg.Config, "min_apr", 0.10),
		holdingDays: configFloat(cfg.Config, "holding_days", 1.0),
		rates:       make(map[string]fundingRate),
		prices:      make(map[string]float64),
	}
}

func (s *fundingRateStrategy) Type() domain.StrategyType { return domain.FundingRate }
func (s *fundingRateStrategy) ID() string                { return s.id }

func (s *fundingRateStrategy) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = make(map[string]fundingRate)
	s.prices = make(map[string]float64)
}

// UpdateFundingRate is the out-of-band entry point the engine does not
// currently wire to any ticker path.
func (s *fundingRateStrategy) UpdateFundingRate(symbol string, rate float64, nextTimeMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[symbol] = fundingRate{rate: rate, nextTimeMS: nextTimeMS}
}

func (s *fundingRateStrategy) OnTicker(t domain.Ticker) *domain.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[t.Symbol] = t.Last

	fr, ok := s.rates[t.Symbol]
	if !ok {
		return nil
	}

	apr := absFloat(fr.rate) * fundingSettlementsPerDay * fundingDaysPerYear
	if apr <= s.minAPR {
		return nil
	}

	direction := "short perp + long spot"
	if fr.rate < 0 {
		direction = "long perp + short spot"
	}

	expectedProfit := apr * s.holdingDays / fundingDaysPerYear * s.cfg.PerTradeLimit
	profitRate := float64(0)
	if s.cfg.PerTradeLimit != 0 {
		profitRate = expectedProfit / s.cfg.PerTradeLimit
	}

	return &domain.Signal{
		StrategyType:   domain.FundingRate,
		StrategyID:     s.id,
		Exchange:       t.Exchange,
		Path:           fmt.Sprintf("%s (%s)", t.Symbol, direction),
		ExpectedProfit: expectedProfit,
		ProfitRate:     profitRate,
		Confidence:     1.0,
		Timestamp:      t.Timestamp,
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
