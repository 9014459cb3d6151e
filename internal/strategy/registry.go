package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/inarbit/engine/internal/domain"
)

// defaultBaseAssets is used when the metric store has no volume data to
// synthesize a default triangle from.
var defaultBaseAssets = []string{"BTC", "ETH", "BNB"}

// Registry owns the mutable set of loaded strategy instances. It is written
// by exactly one caller, the engine loop, once per ticker; Dispatch holds
// the lock for the whole sequential pass so callers never observe a
// partially-mutated strategy list.
type Registry struct {
	mu         sync.Mutex
	strategies []Strategy
	logger     *slog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger.With(slog.String("component", "strategy.registry"))}
}

// Load queries store for enabled strategies ordered by ascending priority
// and constructs each via the factory. If store yields zero rows, Load
// synthesizes a default triangular strategy from metrics and connected
// exchanges.
func (r *Registry) Load(ctx context.Context, store domain.StrategyConfigStore, metrics domain.MetricStore, connected []domain.ExchangeID) error {
	configs, err := store.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("strategy: load configs: %w", err)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].Priority < configs[j].Priority })

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(configs) == 0 {
		cfg := defaultTriangularConfig(ctx, metrics, connected, r.logger)
		configs = []domain.StrategyConfig{cfg}
	}

	strategies := make([]Strategy, 0, len(configs))
	for _, cfg := range configs {
		s, err := createStrategy(cfg, r.logger)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping strategy config", slog.String("strategy_id", cfg.ID), slog.String("error", err.Error()))
			continue
		}
		strategies = append(strategies, s)
	}
	r.strategies = strategies
	return nil
}

// Dispatch feeds t to every loaded strategy in order and collects the
// signals they emit. It holds the registry lock for its whole duration,
// matching the single-writer discipline of .
func (r *Registry) Dispatch(t domain.Ticker) []domain.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Signal
	for _, s := range r.strategies {
		if sig := s.OnTicker(t); sig != nil {
			out = append(out, *sig)
		}
	}
	return out
}

// Len reports how many strategies are currently loaded.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.strategies)
}

// Shutdown clears every strategy's internal state. Called once, from the
// engine's cancellation path.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.strategies {
		s.Shutdown()
	}
	r.strategies = nil
}

func createStrategy(cfg domain.StrategyConfig, logger *slog.Logger) (Strategy, error) {
	switch cfg.StrategyType {
	case domain.Triangular:
		return newTriangularStrategy(cfg, logger), nil
	case domain.Graph:
		return newGraphStrategy(cfg, logger), nil
	case domain.FundingRate:
		return newFundingRateStrategy(cfg, logger), nil
	case domain.Grid:
		return newGridStrategy(cfg, logger), nil
	case domain.Pair:
		return newPairStrategy(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy type %q", cfg.StrategyType)
	}
}

// defaultTriangularConfig synthesizes a default triangular strategy config
// per : prefer Binance, else Okx, else any connected exchange; rank the
// top three base assets by volume and build all ordered pairs into
// triangles.
func defaultTriangularConfig(ctx context.Context, metrics domain.MetricStore, connected []domain.ExchangeID, logger *slog.Logger) domain.StrategyConfig {
	exchange := pickDefaultExchange(connected)
	bases := topBaseAssets(ctx, metrics, exchange, logger)
	triangles := buildTriangles(exchange, bases)

	return domain.StrategyConfig{
		ID:             uuid.NewString(),
		StrategyType:   domain.Triangular,
		Name:           "default-triangular",
		IsEnabled:      true,
		Priority:       100,
		CapitalPercent: 1.0,
		PerTradeLimit:  100,
		Config: map[string]any{
			"exchange":  string(exchange),
			"triangles": triangles,
		},
	}
}

func pickDefaultExchange(connected []domain.ExchangeID) domain.ExchangeID {
	has := make(map[domain.ExchangeID]bool, len(connected))
	for _, id := range connected {
		has[id] = true
	}
	if has[domain.Binance] {
		return domain.Binance
	}
	if has[domain.Okx] {
		return domain.Okx
	}
	if len(connected) > 0 {
		return connected[0]
	}
	return domain.Binance
}

func topBaseAssets(ctx context.Context, metrics domain.MetricStore, exchange domain.ExchangeID, logger *slog.Logger) []string {
	if metrics == nil {
		return defaultBaseAssets
	}

	symbols, err := metrics.TopVolumeSymbols(ctx, exchange, "USDT", 10)
	if err != nil || len(symbols) == 0 {
		if err != nil {
			logger.WarnContext(ctx, "top volume symbols lookup failed, using default bases", slog.String("error", err.Error()))
		}
		return defaultBaseAssets
	}

	seen := make(map[string]bool, 3)
	bases := make([]string, 0, 3)
	for _, sym := range symbols {
		base, ok := stripQuote(sym, "USDT")
		if !ok || seen[base] {
			continue
		}
		seen[base] = true
		bases = append(bases, base)
		if len(bases) == 3 {
			break
		}
	}
	if len(bases) < 3 {
		return defaultBaseAssets
	}
	return bases
}

func stripQuote(symbol, quote string) (string, bool) {
	if len(symbol) <= len(quote) || symbol[len(symbol)-len(quote):] != quote {
		return "", false
	}
	return symbol[:len(symbol)-len(quote)], true
}

// buildTriangles generates every ordered (a,b) pair, a != b, from bases and
// turns it into a (aUSDT, ba, bUSDT) triangle, using '-' separators for OKX
// and no separator elsewhere.
func buildTriangles(exchange domain.ExchangeID, bases []string) [][]string {
	sep := ""
	if exchange == domain.Okx {
		sep = "-"
	}

	var out [][]string
	for _, a := range bases {
		for _, b := range bases {
			if a == b {
				continue
			}
			out = append(out, []string{
				a + sep + "USDT",
				b + sep + a,
				b + sep + "USDT",
			})
		}
	}
	return out
}
