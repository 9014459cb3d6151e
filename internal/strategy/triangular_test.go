package strategy

import (
	"log/slog"
	"io"
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalculateTriangularProfitPureFunction(t *testing.T) {
	a := calculateTriangularProfit(50000, 0.05, 2600, 0)
	b := calculateTriangularProfit(50000, 0.05, 2600, 0)
	if a != b {
		t.Fatalf("expected deterministic output, got %v and %v", a, b)
	}
	if a <= 0.039 || a >= 0.041 {
		t.Errorf("profit_rate = %v, want ~0.04", a)
	}
}

func TestTriangularStrategyHit(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "s1",
		StrategyType:  domain.Triangular,
		PerTradeLimit: 100,
		Config: map[string]any{
			"fee":             0.0,
			"min_profit_rate": 0.001,
			"triangles":       []any{[]any{"BTCUSDT", "ETHBTC", "ETHUSDT"}},
		},
	}
	s := newTriangularStrategy(cfg, discardLogger())

	s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Ask: 50000, Bid: 49999})
	s.OnTicker(domain.Ticker{Symbol: "ETHBTC", Ask: 0.05, Bid: 0.0499})
	sig := s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Ask: 2601, Bid: 2600})

	if sig == nil {
		t.Fatal("expected a signal on the third leg")
	}
	if sig.ProfitRate <= 0.001 {
		t.Errorf("profit_rate = %v, want > 0.001", sig.ProfitRate)
	}
	if sig.ExpectedProfit != sig.ProfitRate*100 {
		t.Errorf("expected_profit invariant violated: %v != %v*100", sig.ExpectedProfit, sig.ProfitRate)
	}
}

func TestTriangularStrategyMiss(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "s1",
		StrategyType:  domain.Triangular,
		PerTradeLimit: 100,
		Config: map[string]any{
			"fee":             0.0,
			"min_profit_rate": 0.001,
			"triangles":       []any{[]any{"BTCUSDT", "ETHBTC", "ETHUSDT"}},
		},
	}
	s := newTriangularStrategy(cfg, discardLogger())

	s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Ask: 50000, Bid: 49999})
	s.OnTicker(domain.Ticker{Symbol: "ETHBTC", Ask: 0.05, Bid: 0.0499})
	sig := s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Ask: 2491, Bid: 2490})

	if sig != nil {
		t.Fatalf("expected no signal, got %+v", sig)
	}
}
