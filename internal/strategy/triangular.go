package strategy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// triangle is a three-leg cycle: pair1 is quote->base1 (e.g. BTCUSDT),
// pair2 is base2->base1 (e.g. ETHBTC), pair3 is base2->quote (e.g. ETHUSDT).
type triangle struct {
	pair1, pair2, pair3 string
}

type priceQuote struct {
	bid, ask float64
	ts       int64
}

// triangularStrategy implements : three-leg cycles through distinct
// markets, emitting a signal when the round-trip return beats minProfitRate.
type triangularStrategy struct {
	id            string
	cfg           domain.StrategyConfig
	logger        *slog.Logger
	fee           float64
	minProfitRate float64
	triangles     []triangle

	mu     sync.Mutex
	prices map[string]priceQuote
}

func newTriangularStrategy(cfg domain.StrategyConfig, logger *slog.Logger) *triangularStrategy {
	return &triangularStrategy{
		id:            cfg.ID,
		cfg:           cfg,
		logger:        logger.With(slog.String("strategy", "triangular"), slog.String("strategy_id", cfg.ID)),
		fee:           configFloat(cfg.Config, "fee", baseFee),
		minProfitRate: configFloat(cfg.Config, "min_profit_rate", 0.001),
		triangles:     loadTriangles(cfg.Config),
		prices:        make(map[string]priceQuote),
	}
}

func (s *triangularStrategy) Type() domain.StrategyType { return domain.Triangular }
func (s *triangularStrategy) ID() string                { return s.id }

func (s *triangularStrategy) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = make(map[string]priceQuote)
}

func (s *triangularStrategy) OnTicker(t domain.Ticker) *domain.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[t.Symbol] = priceQuote{bid: t.Bid, ask: t.Ask, ts: t.Timestamp}

	for _, tri := range s.triangles {
		p1, ok1 := s.prices[tri.pair1]
		p2, ok2 := s.prices[tri.pair2]
		p3, ok3 := s.prices[tri.pair3]
		if !ok1 || !ok2 || !ok3 || p1.ask <= 0 || p2.ask <= 0 || p3.bid <= 0 {
			continue
		}

		profitRate := calculateTriangularProfit(p1.ask, p2.ask, p3.bid, s.fee)
		if profitRate <= s.minProfitRate {
			continue
		}

		confidence := profitRate / s.minProfitRate
		if confidence > 1.0 {
			confidence = 1.0
		}

		return &domain.Signal{
			StrategyType:   domain.Triangular,
			StrategyID:     s.id,
			Exchange:       t.Exchange,
			Path:           fmt.Sprintf("%s → %s → %s", tri.pair1, tri.pair2, tri.pair3),
			ExpectedProfit: profitRate * s.cfg.PerTradeLimit,
			ProfitRate:     profitRate,
			Confidence:     confidence,
			Timestamp:      t.Timestamp,
		}
	}
	return nil
}

// calculateTriangularProfit is a pure function of its inputs: it returns
// the same profit_rate for the same ask1/ask2/bid3/fee no matter what
// order the price cache was populated in.
func calculateTriangularProfit(ask1, ask2, bid3, fee float64) float64 {
	s1 := (1 / ask1) * (1 - fee)
	s2 := (s1 / ask2) * (1 - fee)
	final := s2 * bid3 * (1 - fee)
	return final - 1
}

func loadTriangles(cfg map[string]any) []triangle {
	raw, ok := cfg["triangles"]
	if !ok {
		return defaultTriangles()
	}

	var out []triangle
	switch v := raw.(type) {
	case [][]string:
		for _, t := range v {
			if len(t) == 3 {
				out = append(out, triangle{pair1: t[0], pair2: t[1], pair3: t[2]})
			}
		}
	case []any:
		for _, item := range v {
			legs, ok := item.([]any)
			if !ok || len(legs) != 3 {
				continue
			}
			p1, ok1 := legs[0].(string)
			p2, ok2 := legs[1].(string)
			p3, ok3 := legs[2].(string)
			if ok1 && ok2 && ok3 {
				out = append(out, triangle{pair1: p1, pair2: p2, pair3: p3})
			}
		}
	}

	if len(out) == 0 {
		return defaultTriangles()
	}
	return out
}

func defaultTriangles() []triangle {
	return []triangle{
		{pair1: "BTCUSDT", pair2: "ETHBTC", pair3: "ETHUSDT"},
		{pair1: "BTCUSDT", pair2: "BNBBTC", pair3: "BNBUSDT"},
	}
}
