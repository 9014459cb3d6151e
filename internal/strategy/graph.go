package strategy

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// quoteSuffixes is the order symbols are tested against to split them into
// (base, quote).
var quoteSuffixes = []string{"USDT", "USDC", "BTC", "ETH", "BNB"}

// edgeMaxAgeMS bounds how long an untouched edge survives before being
// pruned ahead of a Bellman-Ford pass, capping memory growth under a
// long-lived run.
const edgeMaxAgeMS = 10 * 60 * 1000

type graphEdge struct {
	weight    float64
	updatedAt int64
}

// graphStrategy maintains a directed weighted graph of (quote -> base) buy
// edges and (base -> quote) sell edges in log-price space, and looks for
// negative cycles with Bellman-Ford.
type graphStrategy struct {
	id            string
	cfg           domain.StrategyConfig
	logger        *slog.Logger
	fee           float64
	minProfitRate float64

	mu    sync.Mutex
	edges map[string]map[string]graphEdge
	now   int64
}

func newGraphStrategy(cfg domain.StrategyConfig, logger *slog.Logger) *graphStrategy {
	return &graphStrategy{
		id:            cfg.ID,
		cfg:           cfg,
		logger:        logger.With(slog.String("strategy", "graph"), slog.String("strategy_id", cfg.ID)),
		fee:           configFloat(cfg.Config, "fee", baseFee),
		minProfitRate: configFloat(cfg.Config, "min_profit_rate", 0.002),
		edges:         make(map[string]map[string]graphEdge),
	}
}

func (s *graphStrategy) Type() domain.StrategyType { return domain.Graph }
func (s *graphStrategy) ID() string                { return s.id }

func (s *graphStrategy) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = make(map[string]map[string]graphEdge)
}

func (s *graphStrategy) OnTicker(t domain.Ticker) *domain.Signal {
	base, quote, ok := splitSymbol(t.Symbol)
	if !ok || t.Ask <= 0 || t.Bid <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = t.Timestamp
	s.pruneStale()

	s.setEdge(quote, base, -math.Log(t.Ask*(1-s.fee)), t.Timestamp)
	s.setEdge(base, quote, math.Log(t.Bid*(1-s.fee)), t.Timestamp)

	cycle, weight, ok := s.findNegativeCycle()
	if !ok {
		return nil
	}

	profitRate := math.Exp(-weight) - 1
	if profitRate <= s.minProfitRate {
		return nil
	}

	return &domain.Signal{
		StrategyType:   domain.Graph,
		StrategyID:     s.id,
		Exchange:       t.Exchange,
		Path:           strings.Join(cycle, " → "),
		ExpectedProfit: profitRate * s.cfg.PerTradeLimit,
		ProfitRate:     profitRate,
		Confidence:     1.0,
		Timestamp:      t.Timestamp,
	}
}

func (s *graphStrategy) setEdge(from, to string, weight float64, ts int64) {
	if s.edges[from] == nil {
		s.edges[from] = make(map[string]graphEdge)
	}
	s.edges[from][to] = graphEdge{weight: weight, updatedAt: ts}
}

func (s *graphStrategy) pruneStale() {
	for from, to := range s.edges {
		for dst, e := range to {
			if s.now-e.updatedAt > edgeMaxAgeMS {
				delete(to, dst)
			}
		}
		if len(to) == 0 {
			delete(s.edges, from)
		}
	}
}

// findNegativeCycle runs Bellman-Ford from a virtual source with a 0-weight
// edge into every known node, so a negative cycle is detected regardless of
// which node happens to be reachable first.
func (s *graphStrategy) findNegativeCycle() ([]string, float64, bool) {
	nodes := s.nodeSet()
	n := len(nodes)
	if n == 0 {
		return nil, 0, false
	}

	dist := make(map[string]float64, n)
	parent := make(map[string]string, n)
	for _, node := range nodes {
		dist[node] = 0
	}

	for i := 0; i < n; i++ {
		for from, edges := range s.edges {
			for to, e := range edges {
				if dist[from]+e.weight < dist[to] {
					dist[to] = dist[from] + e.weight
					parent[to] = from
				}
			}
		}
	}

	for from, edges := range s.edges {
		for to, e := range edges {
			if dist[from]+e.weight < dist[to]-1e-12 {
				cycle := reconstructCycle(parent, to, n)
				return cycle, dist[from] + e.weight, true
			}
		}
	}
	return nil, 0, false
}

func (s *graphStrategy) nodeSet() []string {
	seen := make(map[string]bool)
	for from, edges := range s.edges {
		seen[from] = true
		for to := range edges {
			seen[to] = true
		}
	}
	nodes := make([]string, 0, len(seen))
	for node := range seen {
		nodes = append(nodes, node)
	}
	return nodes
}

// reconstructCycle walks parent pointers back from v up to n+1 steps,
// stopping when a node repeats, then reverses the accumulated path.
func reconstructCycle(parent map[string]string, v string, n int) []string {
	visited := make(map[string]bool)
	path := []string{v}
	cur := v
	for i := 0; i <= n; i++ {
		p, ok := parent[cur]
		if !ok {
			break
		}
		path = append(path, p)
		if visited[p] {
			break
		}
		visited[p] = true
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// splitSymbol tests quote suffixes in order and returns (base, quote).
func splitSymbol(symbol string) (base, quote string, ok bool) {
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return symbol[:len(symbol)-len(q)], q, true
		}
	}
	return "", "", false
}
