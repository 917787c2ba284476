// Package engine reconciles a fetched snapshot against the prior history and
// classifies alerts.
//
// Evaluate is a pure function of (snapshot, prior state, cold-start flag): it
// performs no I/O and takes the clock as an argument, so it is independently
// testable and the orchestrator owns every side effect.
package engine

import (
	"math"
	"time"

	"github.com/futureheadlines/radar/internal/store"
)

// Thresholds holds the alert trigger levels.
type Thresholds struct {
	// Change is the minimum |price change| (pct points) for a NEW_EVENT alert
	Change float64

	// Delta is the minimum |change since last scan| (pct points) for a
	// NEW_VOLATILITY alert
	Delta float64

	// HighVolume is the minimum volume (USD) for a HIGH_VALUE_NEW_EVENT alert
	HighVolume float64
}

// Outcome is the result of one evaluation: the alerts to dispatch, in input
// order, and the next history state to persist.
type Outcome struct {
	Alerts []store.Alert
	Next   store.HistoryState
}

// Evaluate runs the per-event decision procedure over a filtered snapshot.
//
// Every event is upserted into the next state whether or not it alerts; this
// caps alerting at once per threshold crossing instead of re-firing on the
// same drift measured against a stale baseline. Records for events absent
// from the snapshot are carried over untouched. When coldStart is true the
// state is still fully computed but no alerts are emitted, so a first run
// against an empty history builds a baseline silently.
func Evaluate(events []store.Event, prior store.HistoryState, coldStart bool, now time.Time, th Thresholds) Outcome {
	next := prior.Clone()
	var alerts []store.Alert

	for _, event := range events {
		last, known := prior[event.ID]

		rec := store.HistoryRecord{
			LastPriceChange: event.PriceChange,
			FirstSeen:       now,
			Title:           event.Title,
			Volume:          event.Volume,
			UpdatedAt:       now,
		}
		if known {
			rec.FirstSeen = last.FirstSeen
		}
		next[event.ID] = rec

		if coldStart {
			continue
		}

		if alert, ok := classify(event, last, known, th); ok {
			alerts = append(alerts, alert)
		}
	}

	return Outcome{Alerts: alerts, Next: next}
}

// classify decides which alert, if any, the event triggers. At most one alert
// fires per event; for unknown events the price-change check takes priority
// over the volume check.
func classify(event store.Event, last store.HistoryRecord, known bool, th Thresholds) (store.Alert, bool) {
	if !known {
		if math.Abs(event.PriceChange) >= th.Change {
			return store.Alert{
				Kind:      store.AlertNewEvent,
				Event:     event,
				Magnitude: event.PriceChange,
			}, true
		}
		if event.Volume >= th.HighVolume {
			return store.Alert{
				Kind:      store.AlertHighValue,
				Event:     event,
				Magnitude: event.Volume,
			}, true
		}
		return store.Alert{}, false
	}

	delta := event.PriceChange - last.LastPriceChange
	if math.Abs(delta) >= th.Delta {
		return store.Alert{
			Kind:      store.AlertNewVolatility,
			Event:     event,
			Magnitude: delta,
		}, true
	}

	return store.Alert{}, false
}
