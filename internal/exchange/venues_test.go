package exchange

import (
	"encoding/json"
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func TestBuildSubscribeMessageBinance(t *testing.T) {
	frame := buildSubscribeMessage(domain.Binance, []string{"BTC/USDT"})
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Method != "SUBSCRIBE" {
		t.Errorf("method = %q, want SUBSCRIBE", decoded.Method)
	}
	if len(decoded.Params) != 1 || decoded.Params[0] != "btcusdt@ticker" {
		t.Errorf("params = %v, want [btcusdt@ticker]", decoded.Params)
	}
	if decoded.ID != 1 {
		t.Errorf("id = %d, want 1", decoded.ID)
	}
}

func TestBuildSubscribeMessageOkx(t *testing.T) {
	frame := buildSubscribeMessage(domain.Okx, []string{"BTC/USDT"})
	data, _ := json.Marshal(frame)

	var decoded struct {
		Op   string `json:"op"`
		Args []struct {
			Channel string `json:"channel"`
			InstID  string `json:"instId"`
		} `json:"args"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Op != "subscribe" {
		t.Errorf("op = %q, want subscribe", decoded.Op)
	}
	if len(decoded.Args) != 1 || decoded.Args[0].InstID != "BTC-USDT" {
		t.Errorf("args = %+v, want instId BTC-USDT", decoded.Args)
	}
}

func TestParseBinanceTicker(t *testing.T) {
	raw := []byte(`{"e":"24hrTicker","E":1700000000000,"s":"BTCUSDT","b":"49999.5","a":"50000.5","c":"50000.0","v":"1234.5"}`)
	ticker, ok := parseTicker(domain.Binance, raw)
	if !ok {
		t.Fatal("expected ticker to parse")
	}
	if ticker.Symbol != "BTCUSDT" || ticker.Bid != 49999.5 || ticker.Ask != 50000.5 {
		t.Errorf("ticker = %+v, unexpected field values", ticker)
	}
}

func TestParseBinanceTickerWrongEventDropped(t *testing.T) {
	raw := []byte(`{"e":"trade","s":"BTCUSDT"}`)
	_, ok := parseTicker(domain.Binance, raw)
	if ok {
		t.Fatal("expected non-24hrTicker frame to be dropped")
	}
}

func TestParseOkxTicker(t *testing.T) {
	raw := []byte(`{"data":[{"instId":"BTC-USDT","bidPx":"49999.5","askPx":"50000.5","last":"50000.0","vol24h":"1234.5","ts":"1700000000000"}]}`)
	ticker, ok := parseTicker(domain.Okx, raw)
	if !ok {
		t.Fatal("expected ticker to parse")
	}
	if ticker.Symbol != "BTC-USDT" || ticker.Timestamp != 1700000000000 {
		t.Errorf("ticker = %+v, unexpected field values", ticker)
	}
}
