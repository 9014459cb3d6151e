package strategy

import (
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func TestPairStrategyZScoreSpike(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "p1",
		StrategyType:  domain.Pair,
		PerTradeLimit: 100,
		Config: map[string]any{
			"window_size": 100.0,
			"threshold":   2.0,
			"pairs":       []any{[]any{"BTCUSDT", "ETHUSDT"}},
		},
	}
	s := newPairStrategy(cfg, discardLogger())

	var sig *domain.Signal
	for i := 0; i < 99; i++ {
		s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Last: 100})
		s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Last: 100})
	}
	// 100th pair of updates: A spikes to 110, B stays flat.
	s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Last: 100})
	sig = s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Last: 110})

	if sig == nil {
		t.Fatal("expected a z-score signal on the price spike")
	}
	if sig.Path == "" {
		t.Error("expected a non-empty direction path")
	}
}

func TestZScoreRequiresFullWindow(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "p1",
		StrategyType:  domain.Pair,
		PerTradeLimit: 100,
		Config: map[string]any{
			"window_size": 100.0,
			"threshold":   2.0,
			"pairs":       []any{[]any{"BTCUSDT", "ETHUSDT"}},
		},
	}
	s := newPairStrategy(cfg, discardLogger())

	s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Last: 100})
	sig := s.OnTicker(domain.Ticker{Symbol: "ETHUSDT", Last: 100})
	if sig != nil {
		t.Fatal("expected no signal before the window fills")
	}
}
