package publish

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/inarbit/engine/internal/domain"
)

type fakeBus struct {
	published map[string][]byte
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.published == nil {
		f.published = make(map[string][]byte)
	}
	f.published[channel] = payload
	return nil
}
func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) { return nil, nil }
func (f *fakeBus) StreamAppend(ctx context.Context, stream string, payload []byte) error { return nil }
func (f *fakeBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type fakeMetrics struct {
	signals []domain.StrategyType
	blocked []bool
}

func (f *fakeMetrics) RecordSignal(ctx context.Context, strategyType domain.StrategyType, blocked bool) error {
	f.signals = append(f.signals, strategyType)
	f.blocked = append(f.blocked, blocked)
	return nil
}
func (f *fakeMetrics) TopVolumeSymbols(ctx context.Context, exchange domain.ExchangeID, quote string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeMetrics) PublishDecision(ctx context.Context, payload []byte, score float64) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherChannelNameWithUser(t *testing.T) {
	bus := &fakeBus{}
	metrics := &fakeMetrics{}
	p := New(bus, metrics, "user1", discardLogger())

	sig := domain.Signal{StrategyType: domain.Triangular}
	if err := p.Publish(context.Background(), sig); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := bus.published["signal:user1:triangular"]; !ok {
		t.Errorf("expected channel signal:user1:triangular, got %v", bus.published)
	}
	if len(metrics.signals) != 1 || metrics.blocked[0] {
		t.Errorf("expected one non-blocked metric record, got %v / %v", metrics.signals, metrics.blocked)
	}
}

func TestPublisherChannelNameWithoutUser(t *testing.T) {
	bus := &fakeBus{}
	p := New(bus, &fakeMetrics{}, "", discardLogger())

	sig := domain.Signal{StrategyType: domain.Grid}
	if err := p.Publish(context.Background(), sig); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := bus.published["signal:grid"]; !ok {
		t.Errorf("expected channel signal:grid, got %v", bus.published)
	}
}

func TestPublisherBlockedDoesNotPublish(t *testing.T) {
	bus := &fakeBus{}
	metrics := &fakeMetrics{}
	p := New(bus, metrics, "", discardLogger())

	sig := domain.Signal{StrategyType: domain.Pair}
	if err := p.PublishBlocked(context.Background(), sig); err != nil {
		t.Fatalf("publish blocked: %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("expected no pub/sub publish on block, got %v", bus.published)
	}
	if len(metrics.signals) != 1 || !metrics.blocked[0] {
		t.Errorf("expected one blocked metric record, got %v / %v", metrics.signals, metrics.blocked)
	}
}
