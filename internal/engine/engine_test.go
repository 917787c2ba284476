package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureheadlines/radar/internal/store"
)

var testThresholds = Thresholds{
	Change:     5.0,
	Delta:      2.0,
	HighVolume: 150000,
}

func testClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestColdStartSuppressesAllAlerts(t *testing.T) {
	events := []store.Event{
		{ID: "big-mover", PriceChange: 42.0, Volume: 900000},
		{ID: "quiet", PriceChange: 0.3, Volume: 120},
	}

	out := Evaluate(events, store.HistoryState{}, true, testClock(), testThresholds)

	assert.Empty(t, out.Alerts)
	require.Len(t, out.Next, 2)
	assert.Equal(t, 42.0, out.Next["big-mover"].LastPriceChange)
	assert.Equal(t, 0.3, out.Next["quiet"].LastPriceChange)
}

func TestNewEventThresholdBoundary(t *testing.T) {
	out := Evaluate([]store.Event{
		{ID: "at-threshold", PriceChange: 5.0, Volume: 100},
	}, store.HistoryState{}, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertNewEvent, out.Alerts[0].Kind)
	assert.Equal(t, 5.0, out.Alerts[0].Magnitude)

	out = Evaluate([]store.Event{
		{ID: "just-under", PriceChange: 4.99, Volume: 100},
	}, store.HistoryState{}, false, testClock(), testThresholds)

	assert.Empty(t, out.Alerts)
	assert.Contains(t, out.Next, "just-under")
}

func TestNegativeChangeTriggersNewEvent(t *testing.T) {
	out := Evaluate([]store.Event{
		{ID: "crash", PriceChange: -7.5},
	}, store.HistoryState{}, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertNewEvent, out.Alerts[0].Kind)
	assert.Equal(t, -7.5, out.Alerts[0].Magnitude)
}

func TestHighValueNewEvent(t *testing.T) {
	out := Evaluate([]store.Event{
		{ID: "whale-market", PriceChange: 1.0, Volume: 150000},
	}, store.HistoryState{}, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertHighValue, out.Alerts[0].Kind)
	assert.Equal(t, 150000.0, out.Alerts[0].Magnitude)
}

func TestPriorityTieBreak(t *testing.T) {
	// Crossing both thresholds reports once, as NEW_EVENT
	out := Evaluate([]store.Event{
		{ID: "double-trigger", PriceChange: 10.0, Volume: 1000000},
	}, store.HistoryState{}, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertNewEvent, out.Alerts[0].Kind)
}

func TestDeltaSuppression(t *testing.T) {
	prior := store.HistoryState{
		"known": {LastPriceChange: 3.0, FirstSeen: testClock().Add(-24 * time.Hour)},
	}

	out := Evaluate([]store.Event{
		{ID: "known", PriceChange: 4.5},
	}, prior, false, testClock(), testThresholds)

	assert.Empty(t, out.Alerts)
	assert.Equal(t, 4.5, out.Next["known"].LastPriceChange)
}

func TestDeltaTriggerThenRequiet(t *testing.T) {
	prior := store.HistoryState{
		"known": {LastPriceChange: 4.5},
	}

	// 6.6 - 4.5 = 2.1 >= 2.0
	out := Evaluate([]store.Event{
		{ID: "known", PriceChange: 6.6},
	}, prior, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertNewVolatility, out.Alerts[0].Kind)
	assert.InDelta(t, 2.1, out.Alerts[0].Magnitude, 1e-9)

	// Same reading again: delta is now 0, no repeat alert
	out = Evaluate([]store.Event{
		{ID: "known", PriceChange: 6.6},
	}, out.Next, false, testClock(), testThresholds)

	assert.Empty(t, out.Alerts)
	assert.Equal(t, 6.6, out.Next["known"].LastPriceChange)
}

func TestVolatilityMagnitudeIsSigned(t *testing.T) {
	prior := store.HistoryState{
		"falling": {LastPriceChange: 2.0},
	}

	out := Evaluate([]store.Event{
		{ID: "falling", PriceChange: -1.0},
	}, prior, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 1)
	assert.Equal(t, store.AlertNewVolatility, out.Alerts[0].Kind)
	assert.InDelta(t, -3.0, out.Alerts[0].Magnitude, 1e-9)
}

func TestKnownEventVolumeDoesNotAlert(t *testing.T) {
	// The volume check is for unknown events only
	prior := store.HistoryState{
		"known": {LastPriceChange: 1.0},
	}

	out := Evaluate([]store.Event{
		{ID: "known", PriceChange: 1.5, Volume: 5000000},
	}, prior, false, testClock(), testThresholds)

	assert.Empty(t, out.Alerts)
}

func TestIdempotentNoOpRun(t *testing.T) {
	events := []store.Event{
		{ID: "a", PriceChange: 10.0, Volume: 500},
		{ID: "b", PriceChange: 1.0, Volume: 400000},
	}

	first := Evaluate(events, store.HistoryState{}, false, testClock(), testThresholds)
	require.Len(t, first.Alerts, 2)

	second := Evaluate(events, first.Next, false, testClock(), testThresholds)
	assert.Empty(t, second.Alerts)
	assert.Equal(t, first.Next, second.Next)
}

func TestAbsentEventsCarriedOver(t *testing.T) {
	prior := store.HistoryState{
		"gone": {LastPriceChange: 9.0, Title: "disappeared from feed"},
	}

	out := Evaluate([]store.Event{
		{ID: "fresh", PriceChange: 0.1},
	}, prior, false, testClock(), testThresholds)

	require.Contains(t, out.Next, "gone")
	assert.Equal(t, prior["gone"], out.Next["gone"])
	assert.Contains(t, out.Next, "fresh")
}

func TestPriorStateNotMutated(t *testing.T) {
	prior := store.HistoryState{
		"known": {LastPriceChange: 1.0},
	}

	Evaluate([]store.Event{
		{ID: "known", PriceChange: 8.0},
	}, prior, false, testClock(), testThresholds)

	assert.Equal(t, 1.0, prior["known"].LastPriceChange)
}

func TestFirstSeenPreserved(t *testing.T) {
	firstSeen := testClock().Add(-72 * time.Hour)
	prior := store.HistoryState{
		"known": {LastPriceChange: 1.0, FirstSeen: firstSeen},
	}

	out := Evaluate([]store.Event{
		{ID: "known", PriceChange: 1.2},
		{ID: "fresh", PriceChange: 0.5},
	}, prior, false, testClock(), testThresholds)

	assert.Equal(t, firstSeen, out.Next["known"].FirstSeen)
	assert.Equal(t, testClock(), out.Next["fresh"].FirstSeen)
}

func TestAlertOrderFollowsInputOrder(t *testing.T) {
	events := []store.Event{
		{ID: "first", PriceChange: 9.0},
		{ID: "second", PriceChange: -6.0},
		{ID: "third", PriceChange: 0.1, Volume: 200000},
	}

	out := Evaluate(events, store.HistoryState{}, false, testClock(), testThresholds)

	require.Len(t, out.Alerts, 3)
	assert.Equal(t, "first", out.Alerts[0].Event.ID)
	assert.Equal(t, "second", out.Alerts[1].Event.ID)
	assert.Equal(t, "third", out.Alerts[2].Event.ID)
}
