package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/tokenforge/sale-analytics/internal/metrics"
	"github.com/tokenforge/sale-analytics/internal/store"
)

const (
	reconnectBase = 2 * time.Second
	reconnectMax  = 60 * time.Second
	flushInterval = 5 * time.Second
	retainAge     = 90 * 24 * time.Hour
	cleanupEvery  = 1 * time.Hour
	backfillLimit = 200
)

// purchaseMessage is the feed's wire format for a confirmed purchase.
type purchaseMessage struct {
	Type        string `json:"type"`
	Wallet      string `json:"wallet"`
	TokenAmount string `json:"tokenAmount"`
	USDValue    string `json:"usdValue"`
	TxHash      string `json:"txHash"`
	Timestamp   int64  `json:"timestamp"`
}

// Collector subscribes to the purchase event feed and batches confirmed
// purchases into Postgres.
type Collector struct {
	store   *store.Store
	logger  *slog.Logger
	client  *http.Client
	feedURL string
	apiURL  string

	mu     sync.Mutex
	buffer []store.PurchaseEvent
}

func New(db *store.Store, logger *slog.Logger, feedURL, apiURL string) *Collector {
	return &Collector{
		store:   db,
		logger:  logger,
		client:  &http.Client{Timeout: 15 * time.Second},
		feedURL: feedURL,
		apiURL:  apiURL,
		buffer:  make([]store.PurchaseEvent, 0, 100),
	}
}

// Run starts the collector. Blocks until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	go c.flushLoop(ctx)
	go c.cleanupLoop(ctx)

	// Catch up on purchases made while we were down before subscribing.
	// The unique tx_hash constraint absorbs any overlap with live events.
	if c.apiURL != "" {
		c.backfill(ctx)
	}

	c.logger.Info("purchase collector starting", "url", c.feedURL)

	defer c.flush(context.Background())

	backoff := reconnectBase
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}

		metrics.FeedReconnectsTotal.Inc()
		c.logger.Warn("purchase feed disconnected, reconnecting...", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = time.Duration(math.Min(float64(backoff*2), float64(reconnectMax)))
	}
}

// backfill fetches recent purchases from the REST endpoint on start.
func (c *Collector) backfill(ctx context.Context) {
	events, err := c.fetchRecent(ctx)
	if err != nil {
		c.logger.Warn("purchase backfill failed", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}
	if err := c.store.InsertPurchaseEvents(ctx, events); err != nil {
		c.logger.Warn("purchase backfill insert failed", "count", len(events), "error", err)
		return
	}
	c.logger.Info("backfilled purchase events", "count", len(events))
}

func (c *Collector) fetchRecent(ctx context.Context) ([]store.PurchaseEvent, error) {
	url := fmt.Sprintf("%s?limit=%d", c.apiURL, backfillLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("backfill request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backfill fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backfill status %d", resp.StatusCode)
	}

	var msgs []purchaseMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("backfill decode: %w", err)
	}

	var events []store.PurchaseEvent
	for _, msg := range msgs {
		if ev := messageToEvent(msg); ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

func (c *Collector) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.feedURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck

	c.logger.Info("purchase feed connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("ws read: %w", err)
		}
		c.handleMessage(data)
	}
}

func (c *Collector) handleMessage(data []byte) {
	ev := parsePurchase(data)
	if ev == nil {
		return
	}

	metrics.PurchaseEventsTotal.Inc()

	c.mu.Lock()
	c.buffer = append(c.buffer, *ev)
	c.mu.Unlock()
}

// parsePurchase decodes a feed message. Returns nil for non-purchase
// messages and anything malformed enough to be unusable.
func parsePurchase(data []byte) *store.PurchaseEvent {
	var msg purchaseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil
	}
	if msg.Type != "purchase" {
		return nil
	}
	return messageToEvent(msg)
}

// messageToEvent validates and converts one purchase payload. REST backfill
// entries carry no type field, so the type check stays in parsePurchase.
func messageToEvent(msg purchaseMessage) *store.PurchaseEvent {
	wallet := strings.TrimSpace(msg.Wallet)
	txHash := strings.TrimSpace(msg.TxHash)
	if wallet == "" || txHash == "" {
		return nil
	}

	amount := parseFloat(msg.TokenAmount)
	if amount <= 0 {
		return nil
	}

	return &store.PurchaseEvent{
		Wallet:      wallet,
		TokenAmount: amount,
		USDValue:    parseFloat(msg.USDValue),
		TxHash:      txHash,
		EventTime:   time.UnixMilli(msg.Timestamp).UTC(),
	}
}

func (c *Collector) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.flush(ctx)
		}
	}
}

func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.buffer
	c.buffer = make([]store.PurchaseEvent, 0, 100)
	c.mu.Unlock()

	if err := c.store.InsertPurchaseEvents(ctx, events); err != nil {
		c.logger.Error("flush purchase events failed", "count", len(events), "error", err)
		c.mu.Lock()
		c.buffer = append(events, c.buffer...)
		c.mu.Unlock()
		return
	}
	c.logger.Debug("flushed purchase events", "count", len(events))
}

func (c *Collector) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := c.store.DeletePurchasesBefore(ctx, time.Now().Add(-retainAge))
			if err != nil {
				c.logger.Error("cleanup old purchase events failed", "error", err)
			} else if deleted > 0 {
				c.logger.Info("cleaned up old purchase events", "deleted", deleted)
			}
		}
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
