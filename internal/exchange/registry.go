package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// Registry holds handles to all enabled connectors, keyed by ExchangeID.
type Registry struct {
	mu         sync.RWMutex
	connectors map[domain.ExchangeID]*Connector
	logger     *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		connectors: make(map[domain.ExchangeID]*Connector),
		logger:     logger.With(slog.String("component", "exchange.registry")),
	}
}

// StartConnector creates, starts, and registers a connector for id,
// subscribing to symbols. Connect failures are returned without mutating
// the registry.
func (r *Registry) StartConnector(ctx context.Context, id domain.ExchangeID, symbols []string) (*Connector, error) {
	conn := NewConnector(id, r.logger)
	if err := conn.Start(ctx, symbols); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.connectors[id] = conn
	r.mu.Unlock()

	return conn, nil
}

// Get returns the connector for id, if registered.
func (r *Registry) Get(id domain.ExchangeID) (*Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[id]
	return c, ok
}

// All returns every registered connector.
func (r *Registry) All() []*Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c)
	}
	return out
}

// Len reports how many connectors are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connectors)
}

// CloseAll stops every registered connector.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.connectors {
		if err := c.Close(); err != nil {
			r.logger.Warn("error closing connector", slog.String("exchange", string(id)), slog.String("error", err.Error()))
		}
	}
}

// ErrNoConnectors is returned when the engine starts with zero connected
// exchanges: this is fatal at engine start.
var ErrNoConnectors = fmt.Errorf("exchange: %w", domain.ErrNoExchanges)
