package strategy

import (
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func TestGridStrategyCrossing(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "g1",
		StrategyType:  domain.Grid,
		PerTradeLimit: 100,
		Config: map[string]any{
			"grids": map[string]any{
				"BTCUSDT": map[string]any{
					"lower":        100.0,
					"upper":        200.0,
					"count":        10.0,
					"last_trigger": 150.0,
				},
			},
		},
	}
	s := newGridStrategy(cfg, discardLogger())

	sig := s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Last: 141})
	if sig == nil {
		t.Fatal("expected a signal crossing from grid 5 to grid 4")
	}
	if sig.ProfitRate <= 0.07 || sig.ProfitRate >= 0.072 {
		t.Errorf("profit_rate = %v, want ~0.0709", sig.ProfitRate)
	}
}

func TestGridStrategyEmissionCountMatchesCrossings(t *testing.T) {
	cfg := domain.StrategyConfig{
		ID:            "g1",
		StrategyType:  domain.Grid,
		PerTradeLimit: 100,
		Config: map[string]any{
			"grids": map[string]any{
				"BTCUSDT": map[string]any{
					"lower":        100.0,
					"upper":        200.0,
					"count":        10.0,
					"last_trigger": 150.0,
				},
			},
		},
	}
	s := newGridStrategy(cfg, discardLogger())

	prices := []float64{150, 151, 152, 141, 140, 161, 162}
	emitted := 0
	for _, p := range prices {
		if sig := s.OnTicker(domain.Ticker{Symbol: "BTCUSDT", Last: p}); sig != nil {
			emitted++
		}
	}

	// Crossings relative to last_trigger, which moves only on emit: 150,
	// 151, 152 vs 150 (grid 5, no emit), 141 vs 150 (grid 5->4, emit,
	// last_trigger=141), 140 vs 141 (grid 4, no emit), 161 vs 141 (grid
	// 4->6, emit, last_trigger=161), 162 vs 161 (grid 6, no emit).
	if emitted != 2 {
		t.Errorf("emitted %d signals, want 2 (one per grid-line crossing)", emitted)
	}
}
