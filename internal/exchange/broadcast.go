package exchange

import (
	"log/slog"
	"sync"

	"github.com/inarbit/engine/internal/domain"
)

// broadcastCap is the per-subscriber channel capacity: a slow subscriber
// drops the oldest buffered ticker rather than blocking the producer.
const broadcastCap = 1000

// broadcaster fans a single producer's tickers out to any number of
// subscribers, each buffered independently. A slow subscriber never blocks
// the producer or other subscribers: when a subscriber's buffer is full the
// oldest queued ticker is dropped to make room for the new one, mirroring
// Rust's tokio::sync::broadcast lagged-receiver behavior. Go channels have
// no equivalent of tokio's Lagged(n) notification on the receive side, so
// the broadcaster itself counts drops and logs a warning on every 100th.
type broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan domain.Ticker
	next    int
	dropped uint64
	logger  *slog.Logger
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan domain.Ticker)}
}

// subscribe registers a new receiver and returns its channel plus a function
// to unregister it.
func (b *broadcaster) subscribe() (<-chan domain.Ticker, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan domain.Ticker, broadcastCap)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// send publishes t to every current subscriber, dropping the oldest queued
// value for any subscriber whose buffer is full.
func (b *broadcaster) send(t domain.Ticker) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- t:
		default:
			select {
			case <-ch:
				b.dropped++
				if b.logger != nil && b.dropped%100 == 0 {
					b.logger.Warn("ticker broadcast subscriber lagging, dropping oldest", slog.Uint64("dropped_total", b.dropped))
				}
			default:
			}
			select {
			case ch <- t:
			default:
			}
		}
	}
}

// closeAll closes every subscriber channel. Called when the connector stops.
func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
