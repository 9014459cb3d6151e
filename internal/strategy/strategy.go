// Package strategy implements the five pluggable arbitrage algorithms and
// the registry that owns them. The registry is mutated by exactly one
// caller (the engine loop); strategy instances themselves need no internal
// locking because a tick is fully evaluated before the next one starts.
package strategy

import "github.com/inarbit/engine/internal/domain"

// Strategy is the common capability every strategy variant implements.
// OnTicker is called once per incoming ticker, in engine-loop order, and
// returns a non-nil Signal only when the strategy's own criteria fire.
type Strategy interface {
	Type() domain.StrategyType
	ID() string
	OnTicker(t domain.Ticker) *domain.Signal
	Shutdown()
}

// baseFee is the default per-leg trading fee used when a strategy config
// does not override it.
const baseFee = 0.001

func configFloat(cfg map[string]any, key string, def float64) float64 {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func configInt(cfg map[string]any, key string, def int) int {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func configString(cfg map[string]any, key string, def string) string {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
