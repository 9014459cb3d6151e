// Package exchange implements per-venue WebSocket market-data connectors
// and the registry that holds them.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inarbit/engine/internal/domain"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 30 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// Connector owns one WebSocket connection to an exchange's public
// market-data stream. It has no auto-reconnect: on read error or stream end
// it terminates and lets the supervisor (out of scope) decide whether to
// restart it.
type Connector struct {
	id     domain.ExchangeID
	conn   *websocket.Conn
	logger *slog.Logger

	active *atomic.Bool
	bcast  *broadcaster
}

// NewConnector constructs a Connector for the given exchange. It does not
// dial; call Start to open the connection.
func NewConnector(id domain.ExchangeID, logger *slog.Logger) *Connector {
	active := &atomic.Bool{}
	l := logger.With(slog.String("component", "exchange.connector"), slog.String("exchange", string(id)))
	b := newBroadcaster()
	b.logger = l
	return &Connector{
		id:     id,
		logger: l,
		active: active,
		bcast:  b,
	}
}

// ID returns the exchange this connector serves.
func (c *Connector) ID() domain.ExchangeID { return c.id }

// Start opens the WebSocket, sends the venue's subscribe frame for symbols,
// and spawns the reader goroutine. It returns once the connection handshake
// succeeds and the subscribe frame is written; the reader runs until ctx is
// cancelled or the socket errors.
func (c *Connector) Start(ctx context.Context, symbols []string) error {
	url := c.id.WSURL()
	if url == "" {
		return fmt.Errorf("exchange: unknown venue %q", c.id)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("exchange: connect %s: %w", c.id, err)
	}
	c.conn = conn

	frame := buildSubscribeMessage(c.id, symbols)
	data, err := json.Marshal(frame)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("exchange: marshal subscribe frame %s: %w", c.id, err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return fmt.Errorf("exchange: send subscribe frame %s: %w", c.id, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.active.Store(true)
	go c.readLoop(ctx)
	go c.pingLoop(ctx)

	return nil
}

// Subscribe returns a per-caller channel that receives every Ticker this
// connector parses, plus a function to stop receiving. The channel has
// bounded capacity and drops the oldest queued ticker if the caller falls
// behind.
func (c *Connector) Subscribe() (<-chan domain.Ticker, func()) {
	return c.bcast.subscribe()
}

// Active reports whether the reader loop is still running.
func (c *Connector) Active() bool { return c.active.Load() }

// Close stops the connector and closes the socket.
func (c *Connector) Close() error {
	c.active.Store(false)
	c.bcast.closeAll()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Connector) readLoop(ctx context.Context) {
	defer c.active.Store(false)
	defer c.bcast.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.InfoContext(ctx, "connector terminating on read error", slog.String("error", err.Error()))
			return
		}

		ticker, ok := parseTicker(c.id, raw)
		if !ok {
			continue
		}
		c.bcast.send(ticker)
	}
}

func (c *Connector) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.active.Load() {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
