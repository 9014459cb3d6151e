package domain

// Signal is a strategy's emitted trade candidate. Invariant: ExpectedProfit
// == ProfitRate * per-trade-limit of the originating strategy config, to
// within one ULP.
type Signal struct {
	StrategyType   StrategyType
	StrategyID     string
	Exchange       ExchangeID
	Path           string
	ExpectedProfit float64
	ProfitRate     float64
	Confidence     float64
	Timestamp      int64
}
