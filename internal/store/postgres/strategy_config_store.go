package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inarbit/engine/internal/domain"
)

// StrategyConfigStore implements domain.StrategyConfigStore using PostgreSQL,
// against the strategy_configs table (id, strategy_type, name, is_enabled,
// priority, capital_percent, per_trade_limit, config jsonb).
type StrategyConfigStore struct {
	pool *pgxpool.Pool
}

// NewStrategyConfigStore creates a new StrategyConfigStore backed by the
// given connection pool.
func NewStrategyConfigStore(pool *pgxpool.Pool) *StrategyConfigStore {
	return &StrategyConfigStore{pool: pool}
}

// ListEnabled returns every enabled strategy config, ordered by ascending
// priority for load.
func (s *StrategyConfigStore) ListEnabled(ctx context.Context) ([]domain.StrategyConfig, error) {
	const query = `
		SELECT id, strategy_type, name, is_enabled, priority, capital_percent, per_trade_limit, config
		FROM strategy_configs
		WHERE is_enabled = true
		ORDER BY priority ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list enabled strategy configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.StrategyConfig
	for rows.Next() {
		cfg, err := scanStrategyConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list enabled strategy configs rows: %w", err)
	}
	return configs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategyConfig(row rowScanner) (domain.StrategyConfig, error) {
	var cfg domain.StrategyConfig
	var id uuid.UUID
	var strategyType string
	var configJSON []byte

	if err := row.Scan(&id, &strategyType, &cfg.Name, &cfg.IsEnabled, &cfg.Priority, &cfg.CapitalPercent, &cfg.PerTradeLimit, &configJSON); err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("postgres: scan strategy config: %w", err)
	}

	cfg.ID = id.String()
	cfg.StrategyType = domain.StrategyType(strategyType)
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &cfg.Config); err != nil {
			return domain.StrategyConfig{}, fmt.Errorf("postgres: unmarshal strategy config %s: %w", cfg.ID, err)
		}
	}
	return cfg, nil
}

// Upsert inserts or updates a strategy configuration by id. The Config map
// is stored as JSONB.
func (s *StrategyConfigStore) Upsert(ctx context.Context, cfg domain.StrategyConfig) error {
	configJSON, err := json.Marshal(cfg.Config)
	if err != nil {
		return fmt.Errorf("postgres: marshal strategy config %s: %w", cfg.ID, err)
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	const query = `
		INSERT INTO strategy_configs (id, strategy_type, name, is_enabled, priority, capital_percent, per_trade_limit, config, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			strategy_type   = EXCLUDED.strategy_type,
			name            = EXCLUDED.name,
			is_enabled      = EXCLUDED.is_enabled,
			priority        = EXCLUDED.priority,
			capital_percent = EXCLUDED.capital_percent,
			per_trade_limit = EXCLUDED.per_trade_limit,
			config          = EXCLUDED.config,
			updated_at      = NOW()`

	_, err = s.pool.Exec(ctx, query, id, string(cfg.StrategyType), cfg.Name, cfg.IsEnabled, cfg.Priority, cfg.CapitalPercent, cfg.PerTradeLimit, configJSON)
	if err != nil {
		return fmt.Errorf("postgres: upsert strategy config %s: %w", id, err)
	}
	return nil
}
