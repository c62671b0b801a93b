package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrFeedRejected = errors.New("feed rejected request")
	ErrInvalidQuote = errors.New("invalid quote")
)

var two = decimal.NewFromInt(2)

// CoinbaseConfig configures the Coinbase ticker producer.
type CoinbaseConfig struct {
	URL              string        // e.g. wss://ws-feed.exchange.coinbase.com
	ProductID        string        // e.g. BTC-USD
	HandshakeTimeout time.Duration // Dial handshake timeout
	WriteTimeout     time.Duration // Write deadline for the subscribe frame
}

// DefaultCoinbaseConfig returns sensible defaults.
func DefaultCoinbaseConfig() CoinbaseConfig {
	return CoinbaseConfig{
		URL:              "wss://ws-feed.exchange.coinbase.com",
		ProductID:        "BTC-USD",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// CoinbaseTicker streams mid prices for one product from the Coinbase ticker channel.
// Each Run call is a single connection; wrap it in a supervisor to keep it alive.
type CoinbaseTicker struct {
	cfg    CoinbaseConfig
	out    chan<- Quote
	logger *slog.Logger
	dialer *websocket.Dialer
}

// NewCoinbaseTicker creates a producer writing into out.
func NewCoinbaseTicker(cfg CoinbaseConfig, out chan<- Quote, logger *slog.Logger) *CoinbaseTicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinbaseTicker{
		cfg:    cfg,
		out:    out,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
}

// Run connects, subscribes and forwards quotes until the stream ends.
// A full channel blocks the producer.
func (c *CoinbaseTicker) Run(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial coinbase: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	sub, err := json.Marshal(subscribeRequest{
		Type:       "subscribe",
		ProductIDs: []string{c.cfg.ProductID},
		Channels:   []string{"ticker"},
	})
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	c.logger.Info("reference feed subscribed", "product_id", c.cfg.ProductID)

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				c.logger.Info("reference feed closed by peer", "code", ce.Code, "reason", ce.Text)
				return nil
			}
			return fmt.Errorf("read coinbase: %w", err)
		}

		q, ok, err := ParseTicker(data, receivedAt)
		if err != nil {
			if errors.Is(err, ErrFeedRejected) {
				return err
			}
			c.logger.Debug("skipping ticker frame", "error", err)
			continue
		}
		if !ok {
			continue
		}

		select {
		case c.out <- q:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseTicker extracts a mid-price quote from a Coinbase ticker frame.
// It returns ok=false for frames that are not ticker updates.
func ParseTicker(data []byte, receivedAt time.Time) (Quote, bool, error) {
	typ, err := jsonparser.GetString(data, "type")
	if err != nil {
		return Quote{}, false, fmt.Errorf("read type: %w", err)
	}

	switch typ {
	case "ticker":
	case "error":
		msg, _ := jsonparser.GetString(data, "message")
		reason, _ := jsonparser.GetString(data, "reason")
		return Quote{}, false, fmt.Errorf("%w: %s %s", ErrFeedRejected, msg, reason)
	default:
		// subscriptions, heartbeat
		return Quote{}, false, nil
	}

	bid, err := decimalField(data, "best_bid")
	if err != nil {
		return Quote{}, false, err
	}
	ask, err := decimalField(data, "best_ask")
	if err != nil {
		return Quote{}, false, err
	}
	if !bid.IsPositive() || !ask.IsPositive() {
		return Quote{}, false, fmt.Errorf("%w: bid=%s ask=%s", ErrInvalidQuote, bid, ask)
	}
	if ask.LessThan(bid) {
		return Quote{}, false, fmt.Errorf("%w: crossed book bid=%s ask=%s", ErrInvalidQuote, bid, ask)
	}

	product, _ := jsonparser.GetString(data, "product_id")

	return Quote{
		Price:      bid.Add(ask).Div(two),
		Bid:        bid,
		Ask:        ask,
		Source:     "coinbase:" + product,
		ReceivedAt: receivedAt,
	}, true, nil
}

func decimalField(data []byte, key string) (decimal.Decimal, error) {
	raw, err := jsonparser.GetString(data, key)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("read %s: %w", key, err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
