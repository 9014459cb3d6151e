package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// pairLeg is a tradeable pair of two symbols, e.g. {"BTCUSDT","ETHUSDT"}.
type pairLeg struct {
	symbol1, symbol2 string
}

// pairStrategy implements : tracks the price ratio of two correlated
// symbols and emits a signal when it deviates from its rolling mean by more
// than threshold standard deviations.
type pairStrategy struct {
	id         string
	cfg        domain.StrategyConfig
	logger     *slog.Logger
	windowSize int
	threshold  float64
	pairs      []pairLeg

	mu       sync.Mutex
	history1 map[string][]float64
	history2 map[string][]float64
}

func newPairStrategy(cfg domain.StrategyConfig, logger *slog.Logger) *pairStrategy {
	return &pairStrategy{
		id:         cfg.ID,
		cfg:        cfg,
		logger:     logger.With(slog.String("strategy", "pair"), slog.String("strategy_id", cfg.ID)),
		windowSize: configInt(cfg.Config, "window_size", 100),
		threshold:  configFloat(cfg.Config, "threshold", 2.0),
		pairs:      loadPairs(cfg.Config),
		history1:   make(map[string][]float64),
		history2:   make(map[string][]float64),
	}
}

func (s *pairStrategy) Type() domain.StrategyType { return domain.Pair }
func (s *pairStrategy) ID() string                { return s.id }

func (s *pairStrategy) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history1 = make(map[string][]float64)
	s.history2 = make(map[string][]float64)
}

func (s *pairStrategy) OnTicker(t domain.Ticker) *domain.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pairs {
		key := p.symbol1 + "/" + p.symbol2
		switch t.Symbol {
		case p.symbol1:
			s.history1[key] = pushBounded(s.history1[key], t.Last, s.windowSize)
		case p.symbol2:
			s.history2[key] = pushBounded(s.history2[key], t.Last, s.windowSize)
		default:
			continue
		}

		h1, h2 := s.history1[key], s.history2[key]
		if len(h1) < s.windowSize || len(h2) < s.windowSize {
			continue
		}

		z, ok := zScore(h1, h2)
		if !ok || math.Abs(z) <= s.threshold {
			continue
		}

		direction := "short " + p.symbol1 + " / long " + p.symbol2
		if z < 0 {
			direction = "long " + p.symbol1 + " / short " + p.symbol2
		}

		profitRate := (math.Abs(z) - s.threshold) * 0.01
		confidence := math.Abs(z) / (2 * s.threshold)
		if confidence > 1.0 {
			confidence = 1.0
		}

		return &domain.Signal{
			StrategyType:   domain.Pair,
			StrategyID:     s.id,
			Exchange:       t.Exchange,
			Path:           fmt.Sprintf("%s (%s)", key, direction),
			ExpectedProfit: profitRate * s.cfg.PerTradeLimit,
			ProfitRate:     profitRate,
			Confidence:     confidence,
			Timestamp:      t.Timestamp,
		}
	}
	return nil
}

// zScore computes the z-score of the latest price ratio against the rolling
// mean/stddev of the whole ratio history.
func zScore(h1, h2 []float64) (float64, bool) {
	n := len(h1)
	if n == 0 || n != len(h2) {
		return 0, false
	}

	ratios := make([]float64, n)
	for i := range ratios {
		if h2[i] == 0 {
			return 0, false
		}
		ratios[i] = h1[i] / h2[i]
	}

	mean := 0.0
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range ratios {
		d := r - mean
		variance += d * d
	}
	variance /= float64(n)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0, false
	}

	lastRatio := h1[n-1] / h2[n-1]
	return (lastRatio - mean) / stddev, true
}

func pushBounded(history []float64, v float64, window int) []float64 {
	history = append(history, v)
	if len(history) > window {
		history = history[len(history)-window:]
	}
	return history
}

func loadPairs(cfg map[string]any) []pairLeg {
	raw, ok := cfg["pairs"]
	if !ok {
		return defaultPairs()
	}

	var out []pairLeg
	if items, ok := raw.([]any); ok {
		for _, item := range items {
			legs, ok := item.([]any)
			if !ok || len(legs) != 2 {
				continue
			}
			s1, ok1 := legs[0].(string)
			s2, ok2 := legs[1].(string)
			if ok1 && ok2 {
				out = append(out, pairLeg{symbol1: s1, symbol2: s2})
			}
		}
	}
	if len(out) == 0 {
		return defaultPairs()
	}
	return out
}

func defaultPairs() []pairLeg {
	return []pairLeg{{symbol1: "BTCUSDT", symbol2: "ETHUSDT"}}
}
