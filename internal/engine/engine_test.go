package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/inarbit/engine/internal/domain"
	"github.com/inarbit/engine/internal/executor"
	"github.com/inarbit/engine/internal/publish"
	"github.com/inarbit/engine/internal/risk"
	"github.com/inarbit/engine/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConfigStore struct {
	configs []domain.StrategyConfig
}

func (f *fakeConfigStore) ListEnabled(ctx context.Context) ([]domain.StrategyConfig, error) {
	return f.configs, nil
}
func (f *fakeConfigStore) Upsert(ctx context.Context, cfg domain.StrategyConfig) error { return nil }

type fakeBus struct {
	published map[string][]byte
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.published == nil {
		f.published = make(map[string][]byte)
	}
	f.published[channel] = payload
	return nil
}
func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) { return nil, nil }
func (f *fakeBus) StreamAppend(ctx context.Context, stream string, payload []byte) error { return nil }
func (f *fakeBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type fakeMetrics struct {
	recorded int
}

func (f *fakeMetrics) RecordSignal(ctx context.Context, strategyType domain.StrategyType, blocked bool) error {
	f.recorded++
	return nil
}
func (f *fakeMetrics) TopVolumeSymbols(ctx context.Context, exchange domain.ExchangeID, quote string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeMetrics) PublishDecision(ctx context.Context, payload []byte, score float64) error {
	return nil
}

// TestEngineTriangularTickerProducesSignal drives a full triangular
// triangle through the registry, risk gate, publisher, and executor via one
// Engine.Run pass and confirms the emitted signal is published on the bus
// and recorded in the metric store.
func TestEngineTriangularTickerProducesSignal(t *testing.T) {
	reg := strategy.NewRegistry(discardLogger())
	cfg := domain.StrategyConfig{
		ID:             "tri-1",
		StrategyType:   domain.Triangular,
		Name:           "default-triangular",
		IsEnabled:      true,
		Priority:       1,
		CapitalPercent: 0.05,
		PerTradeLimit:  100,
		Config: map[string]any{
			"triangles": []any{
				[]any{"BTCUSDT", "ETHBTC", "ETHUSDT"},
			},
		},
	}
	store := &fakeConfigStore{configs: []domain.StrategyConfig{cfg}}
	if err := reg.Load(context.Background(), store, &fakeMetrics{}, []domain.ExchangeID{domain.Binance}); err != nil {
		t.Fatalf("load: %v", err)
	}

	bus := &fakeBus{}
	metrics := &fakeMetrics{}
	gate := risk.New("", "", discardLogger())
	pub := publish.New(bus, metrics, "", discardLogger())
	exec := executor.New(executor.Config{Mode: executor.Simulation}, discardLogger())

	tickers := make(chan domain.Ticker, 8)
	e := New(Config{
		Registry:        reg,
		RiskGate:        gate,
		Publisher:       pub,
		Executor:        exec,
		Bus:             bus,
		Tickers:         tickers,
		HeartbeatPeriod: time.Hour,
	}, discardLogger())

	// Feed prices that make the triangle profitable: buy BTC with USDT
	// cheap, buy ETH with BTC cheap, sell ETH for USDT rich.
	tickers <- domain.Ticker{Exchange: domain.Binance, Symbol: "BTCUSDT", Bid: 49900, Ask: 50000, Timestamp: 1}
	tickers <- domain.Ticker{Exchange: domain.Binance, Symbol: "ETHBTC", Bid: 0.0659, Ask: 0.066, Timestamp: 2}
	tickers <- domain.Ticker{Exchange: domain.Binance, Symbol: "ETHUSDT", Bid: 3400, Ask: 3401, Timestamp: 3}
	close(tickers)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if metrics.recorded == 0 {
		t.Error("expected at least one metric record for an emitted signal")
	}
	if len(bus.published) == 0 {
		t.Error("expected at least one published signal")
	}
}
