// Package watch streams live trade prices from the Polymarket WebSocket
// between scheduled scans. It is strictly observational: ticks feed the price
// gauge and the log, never the diff engine or the history state.
package watch

import (
	"encoding/json"
	"strconv"
	"time"
)

// PriceTick is one live price print for an asset.
type PriceTick struct {
	AssetID string
	Price   float64
	Time    time.Time
}

// wsEnvelope is the minimal shape shared by market-channel messages.
type wsEnvelope struct {
	EventType      string `json:"event_type"`
	Type           string `json:"type"`
	AssetID        string `json:"asset_id"`
	Price          string `json:"price"`
	LastTradePrice string `json:"last_trade_price"`
	Timestamp      string `json:"timestamp"`
}

// ParseTicks extracts price ticks from a raw market-channel message. The feed
// sends both single objects and arrays; book snapshots carry the last trade
// price inline while last_trade_price events carry it as "price".
func ParseTicks(data []byte) []PriceTick {
	var envelopes []wsEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		var single wsEnvelope
		if err := json.Unmarshal(data, &single); err != nil {
			return nil
		}
		envelopes = []wsEnvelope{single}
	}

	var ticks []PriceTick
	for _, env := range envelopes {
		tick, ok := toTick(env)
		if !ok {
			continue
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// toTick converts one envelope to a tick, if it carries a usable price.
func toTick(env wsEnvelope) (PriceTick, bool) {
	if env.AssetID == "" {
		return PriceTick{}, false
	}

	raw := env.LastTradePrice
	if env.Type == "last_trade_price" || env.EventType == "last_trade_price" {
		raw = env.Price
	}
	if raw == "" || raw == "0" {
		return PriceTick{}, false
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price == 0 {
		return PriceTick{}, false
	}

	return PriceTick{
		AssetID: env.AssetID,
		Price:   price,
		Time:    parseTimestamp(env.Timestamp),
	}, true
}

// parseTimestamp reads the feed's millisecond Unix timestamps, falling back
// to the local clock.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	if ts > 1e12 {
		return time.UnixMilli(ts)
	}
	return time.Unix(ts, 0)
}
