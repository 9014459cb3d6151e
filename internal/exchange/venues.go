package exchange

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/inarbit/engine/internal/domain"
)

// buildSubscribeMessage constructs the venue-specific subscribe frame for
// Binance, OKX and Bybit; every other venue gets a generic
// {"type":"subscribe","channels":[...]} frame.
func buildSubscribeMessage(id domain.ExchangeID, symbols []string) any {
	switch id {
	case domain.Binance:
		params := make([]string, len(symbols))
		for i, s := range symbols {
			params[i] = strings.ToLower(strings.ReplaceAll(s, "/", "")) + "@ticker"
		}
		return map[string]any{
			"method": "SUBSCRIBE",
			"params": params,
			"id":     1,
		}
	case domain.Okx:
		args := make([]map[string]string, len(symbols))
		for i, s := range symbols {
			args[i] = map[string]string{
				"channel": "tickers",
				"instId":  strings.ReplaceAll(s, "/", "-"),
			}
		}
		return map[string]any{
			"op":   "subscribe",
			"args": args,
		}
	case domain.Bybit:
		args := make([]string, len(symbols))
		for i, s := range symbols {
			args[i] = "tickers." + strings.ReplaceAll(s, "/", "")
		}
		return map[string]any{
			"op":   "subscribe",
			"args": args,
		}
	default:
		return map[string]any{
			"type":     "subscribe",
			"channels": symbols,
		}
	}
}

// binanceTicker is the subset of Binance's 24hrTicker payload the engine
// cares about.
type binanceTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Bid       string `json:"b"`
	Ask       string `json:"a"`
	Volume    string `json:"v"`
}

type okxTickerEnvelope struct {
	Data []okxTicker `json:"data"`
}

type okxTicker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	BidPx  string `json:"bidPx"`
	AskPx  string `json:"askPx"`
	Vol24h string `json:"vol24h"`
	Ts     string `json:"ts"`
}

// parseTicker dispatches to the venue-specific parser and drops (returns
// ok=false) any frame it cannot interpret.
func parseTicker(id domain.ExchangeID, raw []byte) (domain.Ticker, bool) {
	switch id {
	case domain.Binance:
		return parseBinanceTicker(raw)
	case domain.Okx:
		return parseOkxTicker(raw)
	default:
		return domain.Ticker{}, false
	}
}

func parseBinanceTicker(raw []byte) (domain.Ticker, bool) {
	var t binanceTicker
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.Ticker{}, false
	}
	if t.EventType != "24hrTicker" {
		return domain.Ticker{}, false
	}
	bid, errB := strconv.ParseFloat(t.Bid, 64)
	ask, errA := strconv.ParseFloat(t.Ask, 64)
	last, errL := strconv.ParseFloat(t.Close, 64)
	vol, errV := strconv.ParseFloat(t.Volume, 64)
	if errB != nil || errA != nil || errL != nil || errV != nil {
		return domain.Ticker{}, false
	}
	return domain.Ticker{
		Exchange:  domain.Binance,
		Symbol:    t.Symbol,
		Bid:       bid,
		Ask:       ask,
		Last:      last,
		Volume:    vol,
		Timestamp: t.EventTime,
	}, true
}

func parseOkxTicker(raw []byte) (domain.Ticker, bool) {
	var env okxTickerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		return domain.Ticker{}, false
	}
	t := env.Data[0]
	bid, errB := strconv.ParseFloat(t.BidPx, 64)
	ask, errA := strconv.ParseFloat(t.AskPx, 64)
	last, errL := strconv.ParseFloat(t.Last, 64)
	vol, errV := strconv.ParseFloat(t.Vol24h, 64)
	ts, errT := strconv.ParseInt(t.Ts, 10, 64)
	if errB != nil || errA != nil || errL != nil || errV != nil || errT != nil {
		return domain.Ticker{}, false
	}
	return domain.Ticker{
		Exchange:  domain.Okx,
		Symbol:    t.InstID,
		Bid:       bid,
		Ask:       ask,
		Last:      last,
		Volume:    vol,
		Timestamp: ts,
	}, true
}
