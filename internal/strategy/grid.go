package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// gridConfig is one symbol's grid parameters, built from config key "grids".
type gridConfig struct {
	upper, lower float64
	count        int
	size         float64
	lastTrigger  float64
}

// gridStrategy implements : emits a signal whenever price crosses one or
// more grid lines relative to the last trigger price.
type gridStrategy struct {
	id     string
	cfg    domain.StrategyConfig
	logger *slog.Logger

	mu     sync.Mutex
	grids  map[string]*gridConfig
}

func newGridStrategy(cfg domain.StrategyConfig, logger *slog.Logger) *gridStrategy {
	return &gridStrategy{
		id:     cfg.ID,
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "grid"), slog.String("strategy_id", cfg.ID)),
		grids:  loadGrids(cfg.Config),
	}
}

func (s *gridStrategy) Type() domain.StrategyType { return domain.Grid }
func (s *gridStrategy) ID() string                { return s.id }

func (s *gridStrategy) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.grids {
		g.lastTrigger = g.lower
	}
}

func (s *gridStrategy) OnTicker(t domain.Ticker) *domain.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grids[t.Symbol]
	if !ok {
		return nil
	}
	price := t.Last
	if price < g.lower || price > g.upper || g.size <= 0 {
		return nil
	}

	currentIdx := int(math.Floor((price - g.lower) / g.size))
	lastIdx := int(math.Floor((g.lastTrigger - g.lower) / g.size))
	if abs(currentIdx-lastIdx) < 1 {
		return nil
	}

	direction := "sell"
	if price < g.lastTrigger {
		direction = "buy"
	}
	profitRate := g.size / price

	prevTrigger := g.lastTrigger
	g.lastTrigger = price

	return &domain.Signal{
		StrategyType:   domain.Grid,
		StrategyID:     s.id,
		Exchange:       t.Exchange,
		Path:           fmt.Sprintf("%s %s @ %.8f (from %.8f)", t.Symbol, direction, price, prevTrigger),
		ExpectedProfit: profitRate * s.cfg.PerTradeLimit,
		ProfitRate:     profitRate,
		Confidence:     0.8,
		Timestamp:      t.Timestamp,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func loadGrids(cfg map[string]any) map[string]*gridConfig {
	grids := make(map[string]*gridConfig)
	raw, ok := cfg["grids"]
	if !ok {
		return grids
	}

	entries, ok := raw.(map[string]any)
	if !ok {
		return grids
	}

	for symbol, v := range entries {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		lower := configFloat(m, "lower", 0)
		upper := configFloat(m, "upper", 0)
		count := configInt(m, "count", 0)
		if count <= 0 || upper <= lower {
			continue
		}
		size := (upper - lower) / float64(count)
		lastTrigger := configFloat(m, "last_trigger", (lower+upper)/2)
		grids[symbol] = &gridConfig{
			upper:       upper,
			lower:       lower,
			count:       count,
			size:        size,
			lastTrigger: lastTrigger,
		}
	}
	return grids
}
