// Package store provides the data models shared across the radar.
package store

import "time"

// Event represents a single prediction-market event from one fetched snapshot.
// Events are ephemeral: they are built fresh each scan and discarded after it.
type Event struct {
	// ID is the market slug, unique within a snapshot
	ID string

	// Category is the free-text category label from the feed
	Category string

	// Title is the market question ("Will X happen by Y?")
	Title string

	// Link is the public market page URL
	Link string

	// PriceChange is the 24h price change in percentage points (signed).
	// A feed record without a 24h baseline is normalized to 0.
	PriceChange float64

	// Probability is the current YES probability in percent (0-100)
	Probability float64

	// Volume is the total traded volume in USD
	Volume float64
}

// HistoryRecord is the persisted last-observed state for one event.
type HistoryRecord struct {
	// LastPriceChange is the price change recorded at the previous scan
	LastPriceChange float64 `json:"last_price_change"`

	// FirstSeen is when the event first appeared (informational only)
	FirstSeen time.Time `json:"first_seen"`

	// Title and Volume are carried for human inspection of the state file
	Title  string  `json:"title,omitempty"`
	Volume float64 `json:"volume,omitempty"`

	// UpdatedAt is when this record was last written
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryState maps event ID to its last-observed record. It is the entire
// persisted state: loaded once at scan start, committed once at scan end.
type HistoryState map[string]HistoryRecord

// Clone returns a copy of the state. Records are value types, so the copy is
// safe to mutate independently.
func (s HistoryState) Clone() HistoryState {
	next := make(HistoryState, len(s))
	for id, rec := range s {
		next[id] = rec
	}
	return next
}

// Alert kinds
const (
	AlertNewEvent      = "NEW_EVENT"
	AlertNewVolatility = "NEW_VOLATILITY"
	AlertHighValue     = "HIGH_VALUE_NEW_EVENT"
)

// Alert represents a classified notification to be dispatched.
type Alert struct {
	// Kind is one of the Alert* constants
	Kind string

	// Event is the triggering event
	Event Event

	// Magnitude is the value that caused the trigger: the price change for
	// NEW_EVENT, the signed delta for NEW_VOLATILITY, the volume for
	// HIGH_VALUE_NEW_EVENT
	Magnitude float64
}
