// Package risk implements the risk gate consulted before every signal
// reaches the executor.
package risk

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/inarbit/engine/internal/domain"
)

// Gate decides whether an emitted signal is allowed through to the
// executor. With no remote endpoint configured it allows everything.
type Gate struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Gate. baseURL and token come from ENGINE_RISK_BASE (falling
// back to ENGINE_OMS_BASE/ENGINE_OMS_TOKEN); an empty baseURL means
// "always allow".
func New(baseURL, token string, logger *slog.Logger) *Gate {
	return &Gate{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger.With(slog.String("component", "risk.gate")),
	}
}

type riskStatusResponse struct {
	TradingAllowed bool `json:"trading_allowed"`
}

// Evaluate reports whether signal may proceed to execution. Network
// failures and malformed responses are both treated as "allowed": this is
// a fail-open gate by design, not a bug.
func (g *Gate) Evaluate(ctx context.Context, signal domain.Signal) bool {
	if g.baseURL == "" {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/v1/risk/status", nil)
	if err != nil {
		g.logger.WarnContext(ctx, "risk status request build failed, allowing", slog.String("error", err.Error()))
		return true
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.WarnContext(ctx, "risk status request failed, allowing", slog.String("error", err.Error()))
		return true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.WarnContext(ctx, "risk status read failed, allowing", slog.String("error", err.Error()))
		return true
	}

	var status riskStatusResponse
	status.TradingAllowed = true
	if err := json.Unmarshal(body, &status); err != nil {
		g.logger.WarnContext(ctx, "risk status decode failed, allowing", slog.String("error", err.Error()))
		return true
	}

	return status.TradingAllowed
}
