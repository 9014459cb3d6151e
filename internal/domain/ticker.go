// Package domain defines the core data model and capability interfaces shared
// across the engine: tickers, exchanges, strategy configuration, signals, and
// the store/cache/blob boundaries that concrete adapters implement.
package domain

// ExchangeID is a closed enumeration of the venues the engine can connect to.
type ExchangeID string

const (
	Binance ExchangeID = "binance"
	Okx     ExchangeID = "okx"
	Bybit   ExchangeID = "bybit"
	Gate    ExchangeID = "gate"
	Bitget  ExchangeID = "bitget"
	Mexc    ExchangeID = "mexc"
)

// WSURL returns the public market-data WebSocket endpoint for the exchange.
func (e ExchangeID) WSURL() string {
	switch e {
	case Binance:
		return "wss://stream.binance.com:9443/ws"
	case Okx:
		return "wss://ws.okx.com:8443/ws/v5/public"
	case Bybit:
		return "wss://stream.bybit.com/v5/public/spot"
	case Gate:
		return "wss://api.gateio.ws/ws/v4/"
	case Bitget:
		return "wss://ws.bitget.com/spot/v1/stream"
	case Mexc:
		return "wss://wbs.mexc.com/ws"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (e ExchangeID) String() string { return string(e) }

// Ticker is the normalized top-of-book market-data event produced by an
// exchange connector. Invariant: Bid <= Ask when both are known; Timestamp
// is the exchange-reported event time in Unix milliseconds and is not
// guaranteed to be monotonic per (Exchange, Symbol); consumers process
// tickers in arrival order and do not drop out-of-order ones.
type Ticker struct {
	Exchange  ExchangeID
	Symbol    string
	Bid       float64
	Ask       float64
	Last      float64
	Volume    float64
	Timestamp int64
}
