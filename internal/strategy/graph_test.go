package strategy

import (
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func TestSplitSymbol(t *testing.T) {
	base, quote, ok := splitSymbol("BTCUSDT")
	if !ok || base != "BTC" || quote != "USDT" {
		t.Fatalf("splitSymbol(BTCUSDT) = (%q,%q,%v)", base, quote, ok)
	}
}

func TestGraphStrategyNoFalsePositiveOnAcyclicPrices(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "gr1",
		StrategyType:  domain.Graph,
		PerTradeLimit: 100,
		Config: map[string]any{
			"fee":             0.001,
			"min_profit_rate": 0.002,
		},
	}
	s := newGraphStrategy(cfg, discardLogger())

	// Consistent, no-arbitrage prices: round-tripping loses money to fees.
	s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Ask: 50000, Bid: 49995})
	sig := s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Ask: 2600, Bid: 2599})
	if sig != nil {
		t.Fatalf("expected no negative cycle on two independent markets, got %+v", sig)
	}
}

func TestGraphStrategyDetectsCycle(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "gr1",
		StrategyType:  domain.Graph,
		PerTradeLimit: 100,
		Config: map[string]any{
			"fee":             0.0,
			"min_profit_rate": 0.002,
		},
	}
	s := newGraphStrategy(cfg, discardLogger())

	s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Ask: 50000, Bid: 49999})
	s.OnTicker(domain.Ticker{Symbol: "ETHBTC", Ask: 0.05, Bid: 0.0499})
	sig := s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Ask: 2601, Bid: 2600})

	if sig == nil {
		t.Fatal("expected a negative-cycle signal across BTCUSDT/ETHBTC/ETHUSDT")
	}
	if sig.ProfitRate <= 0 {
		t.Errorf("profit_rate = %v, want > 0", sig.ProfitRate)
	}
}
