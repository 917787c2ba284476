package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureheadlines/radar/internal/compliance"
	"github.com/futureheadlines/radar/internal/config"
	"github.com/futureheadlines/radar/internal/engine"
	"github.com/futureheadlines/radar/internal/history"
	"github.com/futureheadlines/radar/internal/notify"
	"github.com/futureheadlines/radar/internal/store"
)

var testThresholds = engine.Thresholds{Change: 5.0, Delta: 2.0, HighVolume: 150000}

type fakeFetcher struct {
	events []store.Event
	err    error
}

func (f *fakeFetcher) FetchEvents(context.Context) ([]store.Event, error) {
	return f.events, f.err
}

type recorderSink struct {
	messages []string
}

func (s *recorderSink) Name() string { return "recorder" }

func (s *recorderSink) Send(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

type failingSink struct {
	attempts int
}

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Send(context.Context, string) error {
	s.attempts++
	return errors.New("delivery refused")
}

func newRunner(fetcher Fetcher, sinks []notify.Sink, historyPath string) *Runner {
	filter := compliance.NewFilter(config.DefaultExcludeKeywords)
	r := New(fetcher, filter, sinks, nil, historyPath, testThresholds)
	r.SetClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return r
}

func TestScanColdStartBuildsBaselineSilently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "mover", Title: "Big mover", PriceChange: 15.0, Volume: 500000},
	}}
	recorder := &recorderSink{}

	r := newRunner(fetcher, []notify.Sink{recorder}, path)
	require.NoError(t, r.Scan(context.Background()))

	assert.Empty(t, recorder.messages)

	state, err := history.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, state["mover"].LastPriceChange)
}

func TestScanDispatchesAlertsAfterBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"steady": {LastPriceChange: 1.0},
	}))

	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "steady", Title: "Steady market", PriceChange: 4.0},
		{ID: "fresh", Title: "Fresh market", PriceChange: 9.0},
	}}
	recorder := &recorderSink{}

	r := newRunner(fetcher, []notify.Sink{recorder}, path)
	require.NoError(t, r.Scan(context.Background()))

	require.Len(t, recorder.messages, 2)
	assert.Contains(t, recorder.messages[0], "[New Volatility]")
	assert.Contains(t, recorder.messages[1], "[New Event]")
}

func TestScanFetchFailureLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"keep": {LastPriceChange: 3.0},
	}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	fetcher := &fakeFetcher{err: errors.New("gateway timeout")}
	r := newRunner(fetcher, nil, path)

	require.Error(t, r.Scan(context.Background()))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestScanEmptySnapshotSkipsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"keep": {LastPriceChange: 3.0},
	}))

	r := newRunner(&fakeFetcher{}, nil, path)
	require.NoError(t, r.Scan(context.Background()))

	state, err := history.Load(path)
	require.NoError(t, err)
	assert.Contains(t, state, "keep")
}

func TestScanCommitFailureDiscardsAlerts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"steady": {LastPriceChange: 1.0},
	}))

	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "steady", Title: "Steady market", PriceChange: 9.0},
	}}
	recorder := &recorderSink{}
	r := newRunner(fetcher, []notify.Sink{recorder}, path)

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err := r.Scan(context.Background())
	require.Error(t, err)
	assert.Empty(t, recorder.messages, "alerts must not be dispatched when commit fails")
}

func TestScanCorruptHistoryFallsBackToColdStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "mover", Title: "Big mover", PriceChange: 20.0},
	}}
	recorder := &recorderSink{}
	r := newRunner(fetcher, []notify.Sink{recorder}, path)

	require.NoError(t, r.Scan(context.Background()))

	// Rebuild is silent and produces a valid baseline
	assert.Empty(t, recorder.messages)
	state, err := history.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20.0, state["mover"].LastPriceChange)
}

func TestScanPushFailureDegradesToConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"steady": {LastPriceChange: 1.0},
	}))

	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "steady", Title: "Steady market", PriceChange: 9.0},
	}}
	recorder := &recorderSink{}
	failing := &failingSink{}
	r := newRunner(fetcher, []notify.Sink{recorder, failing}, path)

	require.NoError(t, r.Scan(context.Background()))

	require.Len(t, recorder.messages, 1)
	assert.Equal(t, 1, failing.attempts)
}

func TestScanExcludedEventLeavesNoTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"existing": {LastPriceChange: 1.0},
	}))

	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "banned", Title: "Taiwan market question", PriceChange: 50.0, Volume: 9999999},
		{ID: "existing", Title: "Existing market", PriceChange: 1.0},
	}}
	recorder := &recorderSink{}
	r := newRunner(fetcher, []notify.Sink{recorder}, path)

	require.NoError(t, r.Scan(context.Background()))

	assert.Empty(t, recorder.messages)
	state, err := history.Load(path)
	require.NoError(t, err)
	assert.NotContains(t, state, "banned")
}

func TestScanDailyDeliversBriefingAndRebaselines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.Commit(path, store.HistoryState{
		"steady": {LastPriceChange: 1.0},
	}))

	// A 9pt jump would alert in a normal scan; the briefing must not
	fetcher := &fakeFetcher{events: []store.Event{
		{ID: "steady", Title: "Steady market", PriceChange: 10.0, Volume: 800000, Probability: 60},
	}}
	recorder := &recorderSink{}
	r := newRunner(fetcher, []notify.Sink{recorder}, path)

	require.NoError(t, r.ScanDaily(context.Background()))

	require.Len(t, recorder.messages, 1)
	assert.Contains(t, recorder.messages[0], "Top Volume")
	assert.NotContains(t, recorder.messages[0], "[New Volatility]")

	state, err := history.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, state["steady"].LastPriceChange)
}
