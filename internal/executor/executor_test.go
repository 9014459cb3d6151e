package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalcRiskScoreBounds(t *testing.T) {
	cases := []struct {
		profitRate float64
		want       float64
	}{
		{profitRate: 0.04, want: 960},
		{profitRate: 0.999, want: 10},
		{profitRate: 2.0, want: 10},  // (1-2.0) clamps to 0.01 floor before scaling
		{profitRate: -1.0, want: 1000},
	}
	for _, c := range cases {
		got := calcRiskScore(c.profitRate)
		if got < 10 || got > 1000 {
			t.Errorf("calcRiskScore(%v) = %v, out of [10,1000]", c.profitRate, got)
		}
		if diff := got - c.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("calcRiskScore(%v) = %v, want %v", c.profitRate, got, c.want)
		}
	}
}

func TestParseSymbolsFromPathArrow(t *testing.T) {
	symbols := parseSymbolsFromPath("BTCUSDT → ETHBTC → ETHUSDT")
	want := []string{"BTCUSDT", "ETHBTC", "ETHUSDT"}
	if fmt.Sprint(symbols) != fmt.Sprint(want) {
		t.Errorf("parseSymbolsFromPath = %v, want %v", symbols, want)
	}
}

func TestParseSymbolsFromPathASCIIArrow(t *testing.T) {
	symbols := parseSymbolsFromPath("BTCUSDT->ETHBTC->ETHUSDT,")
	want := []string{"BTCUSDT", "ETHBTC", "ETHUSDT"}
	if fmt.Sprint(symbols) != fmt.Sprint(want) {
		t.Errorf("parseSymbolsFromPath = %v, want %v", symbols, want)
	}
}

func TestIdempotencyKeyDeterministic(t *testing.T) {
	signal := domain.Signal{StrategyID: "abc", Timestamp: 123456}
	key1 := fmt.Sprintf("engine:%s:%d", signal.StrategyID, signal.Timestamp)
	key2 := fmt.Sprintf("engine:%s:%d", signal.StrategyID, signal.Timestamp)
	if key1 != key2 {
		t.Fatalf("expected identical idempotency keys, got %q and %q", key1, key2)
	}
}

func TestExecutorSimulationMode(t *testing.T) {
	e := New(Config{Mode: Simulation}, discardLogger())

	signal := domain.Signal{
		StrategyID:     "s1",
		StrategyType:   domain.Triangular,
		Path:           "BTCUSDT → ETHBTC → ETHUSDT",
		ExpectedProfit: 4.0,
		ProfitRate:     0.04,
	}

	result, err := e.Execute(context.Background(), signal)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatal("expected simulated execution to succeed")
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected exactly one fabricated order, got %d", len(result.Orders))
	}
	if result.NetProfit != signal.ExpectedProfit-simulatedFee {
		t.Errorf("net_profit = %v, want %v", result.NetProfit, signal.ExpectedProfit-simulatedFee)
	}
}

func TestExecutorLiveModeRefusesWithoutGates(t *testing.T) {
	e := New(Config{Mode: Live, ExecuteSignals: true, LiveConfirm: "WRONG"}, discardLogger())

	_, err := e.Execute(context.Background(), domain.Signal{})
	if err == nil {
		t.Fatal("expected live mode to refuse without correct confirmation")
	}
}
