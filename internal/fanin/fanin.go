// Package fanin merges per-exchange ticker broadcasts into a single bounded,
// ordered channel consumed by the engine loop.
package fanin

import (
	"context"
	"log/slog"

	"github.com/inarbit/engine/internal/domain"
	"github.com/inarbit/engine/internal/exchange"
)

// centralCap is the capacity of the merged channel.
const centralCap = 1000

// FanIn merges connector broadcasts into one ordered channel. Ordering is
// per-source FIFO; across sources, arrival order.
type FanIn struct {
	out    chan domain.Ticker
	logger *slog.Logger
}

// New creates a FanIn and starts one forwarder goroutine per connector.
// Forwarders run until ctx is cancelled or their source broadcast closes.
func New(ctx context.Context, connectors []*exchange.Connector, logger *slog.Logger) *FanIn {
	f := &FanIn{
		out:    make(chan domain.Ticker, centralCap),
		logger: logger.With(slog.String("component", "fanin")),
	}
	for _, c := range connectors {
		f.forward(ctx, c)
	}
	return f
}

// Out returns the merged ticker channel.
func (f *FanIn) Out() <-chan domain.Ticker { return f.out }

func (f *FanIn) forward(ctx context.Context, c *exchange.Connector) {
	ch, unsubscribe := c.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-ch:
				if !ok {
					f.logger.InfoContext(ctx, "connector broadcast closed", slog.String("exchange", string(c.ID())))
					return
				}
				select {
				case f.out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
