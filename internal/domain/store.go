package domain

import "context"

// StrategyConfigStore is the config store boundary: it holds the set of
// enabled strategies, ordered by ascending priority for load.
type StrategyConfigStore interface {
	ListEnabled(ctx context.Context) ([]StrategyConfig, error)
	Upsert(ctx context.Context, cfg StrategyConfig) error
}
