// Package feed fetches event snapshots from the Polymarket Gamma API.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/futureheadlines/radar/internal/store"
)

const (
	// GammaAPIURL is the Polymarket Gamma API endpoint for market data
	GammaAPIURL = "https://gamma-api.polymarket.com/markets"
	// DefaultMarketLimit is the number of markets to fetch per snapshot
	DefaultMarketLimit = 500
	// DefaultTimeout bounds a single fetch
	DefaultTimeout = 30 * time.Second

	// EventURLPrefix is the public market page base for links
	EventURLPrefix = "https://polymarket.com/event/"
)

// ErrBadStatus indicates the feed answered with a non-200 status.
var ErrBadStatus = errors.New("feed returned unexpected status")

// Market represents a Polymarket market from the Gamma API. Only the fields
// the radar needs are mapped; the feed carries many more.
type Market struct {
	ID                string   `json:"id"`
	Question          string   `json:"question"`
	Title             string   `json:"title"`
	Slug              string   `json:"slug"`
	Category          string   `json:"category"`
	Active            bool     `json:"active"`
	Closed            bool     `json:"closed"`
	Volume            string   `json:"volume"`
	VolumeNum         float64  `json:"volumeNum"`
	LastTradePrice    float64  `json:"lastTradePrice"`
	OneDayPriceChange *float64 `json:"oneDayPriceChange"`
	ClobTokenIDs      string   `json:"clobTokenIds"` // JSON array as string
}

// Client fetches market snapshots from the Gamma API.
type Client struct {
	baseURL string
	limit   int
	httpc   *http.Client
}

// NewClient creates a feed client. An empty baseURL falls back to the public
// Gamma endpoint; a non-positive limit falls back to DefaultMarketLimit.
func NewClient(baseURL string, limit int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = GammaAPIURL
	}
	if limit <= 0 {
		limit = DefaultMarketLimit
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		limit:   limit,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// FetchEvents fetches the current snapshot of active markets and converts it
// to events. Markets without a slug cannot be keyed and are skipped.
func (c *Client) FetchEvents(ctx context.Context) ([]store.Event, error) {
	markets, err := c.fetchMarkets(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]store.Event, 0, len(markets))
	for _, market := range markets {
		if market.Slug == "" {
			continue
		}
		events = append(events, toEvent(market))
	}

	return events, nil
}

// fetchMarkets performs the Gamma API request.
func (c *Client) fetchMarkets(ctx context.Context) ([]Market, error) {
	url := fmt.Sprintf("%s?active=true&closed=false&limit=%d", c.baseURL, c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var markets []Market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	return markets, nil
}

// toEvent converts a feed market into the internal event model. The feed
// reports oneDayPriceChange as a fraction; events carry percentage points.
// A missing 24h baseline is normalized to 0, so a brand-new market never
// trips the change threshold on noise it does not have yet.
func toEvent(market Market) store.Event {
	var change float64
	if market.OneDayPriceChange != nil {
		change = *market.OneDayPriceChange * 100
	}

	title := market.Question
	if title == "" {
		title = market.Title
	}

	return store.Event{
		ID:          market.Slug,
		Category:    market.Category,
		Title:       title,
		Link:        EventURLPrefix + market.Slug,
		PriceChange: change,
		Probability: market.LastTradePrice * 100,
		Volume:      marketVolume(market),
	}
}

// marketVolume prefers the numeric volume field and falls back to parsing the
// string form some Gamma responses use.
func marketVolume(market Market) float64 {
	if market.VolumeNum > 0 {
		return market.VolumeNum
	}
	if market.Volume == "" {
		return 0
	}
	v, err := strconv.ParseFloat(market.Volume, 64)
	if err != nil {
		slog.Debug("unparsable volume", "market", market.Slug, "volume", market.Volume)
		return 0
	}
	return v
}

// TokenIDs extracts the CLOB token IDs from a market list, deduplicated.
// The live watch mode subscribes to these over the WebSocket market channel.
func TokenIDs(markets []Market) []string {
	var tokenIDs []string
	seen := make(map[string]bool)

	for _, market := range markets {
		if market.ClobTokenIDs == "" {
			continue
		}

		var ids []string
		if err := json.Unmarshal([]byte(market.ClobTokenIDs), &ids); err != nil {
			slog.Debug("failed to parse token IDs", "market", market.Slug, "error", err)
			continue
		}

		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				tokenIDs = append(tokenIDs, id)
			}
		}
	}

	return tokenIDs
}

// FetchTokenIDs fetches the current markets and returns their token IDs.
func (c *Client) FetchTokenIDs(ctx context.Context) ([]string, error) {
	markets, err := c.fetchMarkets(ctx)
	if err != nil {
		return nil, err
	}

	tokenIDs := TokenIDs(markets)
	slog.Info("fetched_active_markets",
		"market_count", len(markets),
		"token_count", len(tokenIDs),
	)

	return tokenIDs, nil
}
