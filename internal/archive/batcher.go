// Package archive batches emitted and blocked signals for periodic upload
// to durable storage via a domain.SignalArchiver.
package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/inarbit/engine/internal/domain"
)

// defaultFlushInterval is how often a non-empty batch is flushed.
const defaultFlushInterval = 30 * time.Second

// Batcher accumulates signals in memory and flushes them to a
// domain.SignalArchiver on a fixed interval and once more when Run's context
// is cancelled. It is
// safe for concurrent use from the engine loop.
type Batcher struct {
	archiver domain.SignalArchiver
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	batch []domain.ArchivedSignal
}

// New builds a Batcher. A nil archiver makes Add a no-op, so wiring this
// component is optional.
func New(archiver domain.SignalArchiver, logger *slog.Logger) *Batcher {
	return &Batcher{
		archiver: archiver,
		interval: defaultFlushInterval,
		logger:   logger.With(slog.String("component", "archive.batcher")),
	}
}

// Add enqueues a signal for the next flush.
func (b *Batcher) Add(signal domain.Signal, blocked bool) {
	if b.archiver == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batch = append(b.batch, domain.ArchivedSignal{Signal: signal, Blocked: blocked})
}

// Run flushes the accumulated batch every interval until ctx is cancelled,
// then performs one final flush before returning.
func (b *Batcher) Run(ctx context.Context) error {
	if b.archiver == nil {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flush(context.Background())
			return nil
		case <-ticker.C:
			b.flush(ctx)
		}
	}
}

func (b *Batcher) flush(ctx context.Context) {
	b.mu.Lock()
	pending := b.batch
	b.batch = nil
	b.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	if err := b.archiver.Archive(ctx, pending); err != nil {
		b.logger.WarnContext(ctx, "signal archive flush failed", slog.String("error", err.Error()), slog.Int("dropped", len(pending)))
	}
}
