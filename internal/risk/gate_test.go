package risk

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateAllowsWhenUnconfigured(t *testing.T) {
	g := New("", "", testLogger())
	if !g.Evaluate(context.Background(), domain.Signal{}) {
		t.Fatal("expected allow with no configured endpoint")
	}
}

func TestGateHonorsTradingAllowedFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trading_allowed":false}`))
	}))
	defer srv.Close()

	g := New(srv.URL, "tok", testLogger())
	if g.Evaluate(context.Background(), domain.Signal{}) {
		t.Fatal("expected block when trading_allowed is false")
	}
}

func TestGateAllowsOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	g := New(srv.URL, "", testLogger())
	if !g.Evaluate(context.Background(), domain.Signal{}) {
		t.Fatal("expected allow on malformed response")
	}
}

func TestGateAllowsOnNetworkFailure(t *testing.T) {
	g := New("http://127.0.0.1:1", "", testLogger())
	if !g.Evaluate(context.Background(), domain.Signal{}) {
		t.Fatal("expected allow on network failure")
	}
}
