package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/marketdata/stream"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

const (
	pingInterval          = 30 * time.Second
	reconnectInitialDelay = 1 * time.Second
	reconnectMaxDelay     = 30 * time.Second
	maxReconnectAttempts  = 10
)

// StreamClient maintains the gateway websocket feed and writes ticks into
// the shared tick cache. Losing the stream is not fatal; the resolver falls
// back to REST quotes until it reconnects.
type StreamClient struct {
	cfg    config.BrokerConfig
	logger *logger.Logger
	cache  *stream.Cache

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	subscriptions map[string]bool
	subMu         sync.RWMutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStreamClient creates a new gateway stream client
func NewStreamClient(cfg config.BrokerConfig, log *logger.Logger, tickCache *stream.Cache) *StreamClient {
	return &StreamClient{
		cfg:           cfg,
		logger:        log,
		cache:         tickCache,
		subscriptions: make(map[string]bool),
		stopCh:        make(chan struct{}),
	}
}

// Start establishes the websocket connection and starts the read loop.
func (c *StreamClient) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return contracts.Disabledf("broker gateway stream")
	}

	if err := c.connect(ctx); err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	c.logger.Info("Broker stream connected")
	return nil
}

// Stop closes the connection and waits for the loops to exit.
func (c *StreamClient) Stop() {
	close(c.stopCh)

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.logger.Info("Broker stream stopped")
}

// Subscribe subscribes to tick updates for the given symbols.
func (c *StreamClient) Subscribe(symbols []string) error {
	c.subMu.Lock()
	added := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if !c.subscriptions[symbol] {
			c.subscriptions[symbol] = true
			added = append(added, symbol)
		}
	}
	c.subMu.Unlock()

	if len(added) == 0 {
		return nil
	}

	return c.send(map[string]interface{}{
		"type":    "subscribe",
		"symbols": added,
	})
}

// ActiveSymbols returns the currently subscribed symbols.
func (c *StreamClient) ActiveSymbols() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	symbols := make([]string, 0, len(c.subscriptions))
	for symbol := range c.subscriptions {
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (c *StreamClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.cfg.WSURL, nil)
	if err != nil {
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	return nil
}

func (c *StreamClient) send(message interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if !c.connected || c.conn == nil {
		return contracts.Unavailablef("broker stream not connected")
	}

	return c.conn.WriteJSON(message)
}

// tickMessage is one streaming update from the gateway.
type tickMessage struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Volume    int64   `json:"volume"`
	Timestamp int64   `json:"ts"` // unix millis
}

func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnect() {
				return
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}

			c.logger.WithError(err).Warn("Broker stream read failed")

			c.connMu.Lock()
			c.connected = false
			c.conn = nil
			c.connMu.Unlock()

			if !c.reconnect() {
				return
			}
			continue
		}

		c.handleMessage(data)
	}
}

func (c *StreamClient) handleMessage(data []byte) {
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.WithError(err).Debug("Dropped unparseable stream message")
		return
	}

	if msg.Type != "tick" || msg.Symbol == "" {
		return
	}

	ts := time.Now()
	if msg.Timestamp > 0 {
		ts = time.UnixMilli(msg.Timestamp)
	}

	c.cache.Update(&stream.Tick{
		Symbol:    msg.Symbol,
		Last:      msg.Last,
		Bid:       msg.Bid,
		Ask:       msg.Ask,
		Volume:    msg.Volume,
		Timestamp: ts,
		Source:    contracts.SourceBrokerStream,
	})
}

// reconnect retries the connection with exponential backoff and re-sends
// subscriptions. Returns false when shutting down or out of attempts.
func (c *StreamClient) reconnect() bool {
	delay := reconnectInitialDelay

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		select {
		case <-c.stopCh:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.connect(ctx)
		cancel()

		if err == nil {
			c.logger.WithField("attempt", attempt).Info("Broker stream reconnected")

			symbols := c.ActiveSymbols()
			if len(symbols) > 0 {
				if err := c.send(map[string]interface{}{
					"type":    "subscribe",
					"symbols": symbols,
				}); err != nil {
					c.logger.WithError(err).Warn("Failed to resubscribe after reconnect")
				}
			}
			return true
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("Broker stream reconnect failed")

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}

	c.logger.Error("Broker stream gave up reconnecting")
	return false
}

func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.connected && c.conn != nil {
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			c.connMu.Unlock()
		}
	}
}
