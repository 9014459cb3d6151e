package domain

// StrategyType is a closed, extensible enumeration of strategy algorithms.
type StrategyType string

const (
	Triangular  StrategyType = "triangular"
	Graph       StrategyType = "graph"
	FundingRate StrategyType = "funding_rate"
	Grid        StrategyType = "grid"
	Pair        StrategyType = "pair"
)

// StrategyConfig is a per-strategy record loaded from the config store (or
// synthesized as a default when the store has no rows). Config carries an
// opaque JSON blob whose recognized keys are defined per StrategyType.
type StrategyConfig struct {
	ID             string
	StrategyType   StrategyType
	Name           string
	IsEnabled      bool
	Priority       int
	CapitalPercent float64
	PerTradeLimit  float64
	Config         map[string]any
}
