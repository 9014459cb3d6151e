package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inarbit/engine/internal/domain"
)

// decisionsTTL is the lifetime of the decisions:latest sorted set entry.
const decisionsTTL = 10 * time.Second

// MetricStore implements domain.MetricStore on top of Redis hashes, counters
// and sorted sets.
type MetricStore struct {
	rdb *redis.Client
}

// NewMetricStore creates a MetricStore backed by the given Client.
func NewMetricStore(c *Client) *MetricStore {
	return &MetricStore{rdb: c.Underlying()}
}

// RecordSignal updates the engine-wide and per-strategy signal counters.
// blocked selects the "blocked_*" key family used when a signal is
// rejected by the risk gate.
func (m *MetricStore) RecordSignal(ctx context.Context, strategyType domain.StrategyType, blocked bool) error {
	prefix := ""
	if blocked {
		prefix = "blocked_"
	}

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	pipe := m.rdb.TxPipeline()
	pipe.HSet(ctx, "metrics:engine", prefix+"last_signal_ts", now, prefix+"last_strategy_type", string(strategyType))
	pipe.Incr(ctx, fmt.Sprintf("metrics:engine:%ssignal_count", prefix))
	pipe.Incr(ctx, fmt.Sprintf("metrics:engine:strategy:%s:%ssignal_count", strategyType, prefix))
	pipe.HSet(ctx, fmt.Sprintf("metrics:engine:strategy:%s", strategyType), prefix+"last_signal_ts", now)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: record signal metrics: %w", err)
	}
	return nil
}

// TopVolumeSymbols reads the exchange's tracked symbol set, fetches each
// symbol's cached volume, and returns up to limit symbols sorted by
// descending volume, used to rank candidate base assets when a strategy
// config synthesizes its own defaults.
func (m *MetricStore) TopVolumeSymbols(ctx context.Context, exchange domain.ExchangeID, quote string, limit int) ([]string, error) {
	symbols, err := m.rdb.SMembers(ctx, fmt.Sprintf("symbols:ticker:%s", exchange)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: symbols set %s: %w", exchange, err)
	}

	type ranked struct {
		symbol string
		volume float64
	}
	ranks := make([]ranked, 0, len(symbols))
	for _, sym := range symbols {
		volStr, err := m.rdb.HGet(ctx, fmt.Sprintf("ticker:%s:%s", exchange, sym), "volume").Result()
		if err != nil {
			continue
		}
		vol, err := strconv.ParseFloat(volStr, 64)
		if err != nil {
			continue
		}
		ranks = append(ranks, ranked{symbol: sym, volume: vol})
	}

	sort.Slice(ranks, func(i, j int) bool { return ranks[i].volume > ranks[j].volume })

	out := make([]string, 0, limit)
	for _, r := range ranks {
		out = append(out, r.symbol)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// PublishDecision records a decision payload in the decisions:latest sorted
// set scored by risk score, with a 10-second TTL.
func (m *MetricStore) PublishDecision(ctx context.Context, payload []byte, score float64) error {
	pipe := m.rdb.TxPipeline()
	pipe.ZAdd(ctx, "decisions:latest", redis.Z{Score: score, Member: payload})
	pipe.Expire(ctx, "decisions:latest", decisionsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: publish decision: %w", err)
	}
	return nil
}
