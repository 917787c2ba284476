// Package runner wires one scan end to end: fetch, filter, evaluate, commit,
// notify. The scheduler invokes one run per tick and never overlaps runs, so
// the runner has exclusive access to the history file for a run's duration.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/futureheadlines/radar/internal/compliance"
	"github.com/futureheadlines/radar/internal/engine"
	"github.com/futureheadlines/radar/internal/history"
	"github.com/futureheadlines/radar/internal/metrics"
	"github.com/futureheadlines/radar/internal/notify"
	"github.com/futureheadlines/radar/internal/store"
)

// Fetcher supplies the current event snapshot.
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]store.Event, error)
}

// Runner executes scans against a single history file.
type Runner struct {
	fetcher     Fetcher
	filter      *compliance.Filter
	sinks       []notify.Sink
	tracker     *metrics.Tracker
	historyPath string
	thresholds  engine.Thresholds
	now         func() time.Time
}

// New creates a Runner. tracker may be nil when metrics are not served.
func New(fetcher Fetcher, filter *compliance.Filter, sinks []notify.Sink,
	tracker *metrics.Tracker, historyPath string, th engine.Thresholds) *Runner {

	return &Runner{
		fetcher:     fetcher,
		filter:      filter,
		sinks:       sinks,
		tracker:     tracker,
		historyPath: historyPath,
		thresholds:  th,
		now:         time.Now,
	}
}

// SetClock overrides the runner's clock.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Scan performs one full run. On a fetch failure the prior state is left
// untouched and the next tick retries independently. On a commit failure the
// run's alerts are discarded: a state the alerts were based on that could not
// be durably recorded would re-announce the same changes after a restart.
func (r *Runner) Scan(ctx context.Context) error {
	prior, coldStart, err := r.loadHistory()
	if err != nil {
		return err
	}

	events, err := r.fetch(ctx)
	if err != nil {
		r.scanFailed("fetch")
		return fmt.Errorf("fetch events: %w", err)
	}
	if len(events) == 0 {
		slog.Warn("empty_snapshot", "action", "skipping scan")
		return nil
	}

	filtered := r.filter.Apply(events)
	outcome := engine.Evaluate(filtered, prior, coldStart, r.now(), r.thresholds)

	if err := history.Commit(r.historyPath, outcome.Next); err != nil {
		r.scanFailed("commit")
		return fmt.Errorf("commit history: %w", err)
	}

	if coldStart {
		slog.Info("cold_start_baseline",
			"records", len(outcome.Next),
			"suppressed_alerts", true,
		)
	}

	dispatched := r.dispatch(ctx, outcome.Alerts)

	if r.tracker != nil {
		r.tracker.ScanCompleted(len(filtered), len(outcome.Next))
	}
	slog.Info("scan_complete",
		"events", len(events),
		"filtered", len(filtered),
		"alerts", len(outcome.Alerts),
		"dispatched", dispatched,
		"history_records", len(outcome.Next),
		"cold_start", coldStart,
	)

	return nil
}

// ScanDaily performs one briefing run: no threshold evaluation, the history
// baseline is refreshed silently and a volume/gainer digest is delivered.
func (r *Runner) ScanDaily(ctx context.Context) error {
	prior, _, err := r.loadHistory()
	if err != nil {
		return err
	}

	events, err := r.fetch(ctx)
	if err != nil {
		r.scanFailed("fetch")
		return fmt.Errorf("fetch events: %w", err)
	}
	if len(events) == 0 {
		slog.Warn("empty_snapshot", "action", "skipping briefing")
		return nil
	}

	filtered := r.filter.Apply(events)

	// A cold-start evaluation re-baselines every record without alerting,
	// which is exactly what the briefing needs.
	outcome := engine.Evaluate(filtered, prior, true, r.now(), r.thresholds)
	if err := history.Commit(r.historyPath, outcome.Next); err != nil {
		r.scanFailed("commit")
		return fmt.Errorf("commit history: %w", err)
	}

	report := notify.DailyReport(filtered, r.now())
	if report == "" {
		slog.Warn("empty_daily_report", "reason", "all events filtered")
		return nil
	}

	for _, sink := range r.sinks {
		if err := sink.Send(ctx, report); err != nil {
			r.notifyFailed(sink.Name())
			slog.Error("briefing_send_failed", "sink", sink.Name(), "error", err)
		}
	}

	if r.tracker != nil {
		r.tracker.ScanCompleted(len(filtered), len(outcome.Next))
	}
	slog.Info("daily_briefing_complete",
		"events", len(events),
		"filtered", len(filtered),
		"history_records", len(outcome.Next),
	)

	return nil
}

// loadHistory loads the prior state. A corrupt file is logged and treated as
// cold start: operationally safer than halting, and cold-start suppression
// keeps the rebuild from flooding the recipient.
func (r *Runner) loadHistory() (store.HistoryState, bool, error) {
	prior, err := history.Load(r.historyPath)
	if err != nil {
		if errors.Is(err, history.ErrCorruptState) {
			slog.Warn("corrupt_history",
				"path", r.historyPath,
				"action", "rebuilding baseline from cold start",
				"error", err,
			)
			return store.HistoryState{}, true, nil
		}
		r.scanFailed("load")
		return nil, false, fmt.Errorf("load history: %w", err)
	}
	return prior, len(prior) == 0, nil
}

// fetch retrieves the snapshot, timing it for metrics.
func (r *Runner) fetch(ctx context.Context) ([]store.Event, error) {
	start := time.Now()
	events, err := r.fetcher.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	if r.tracker != nil {
		r.tracker.ObserveFetch(time.Since(start))
	}
	slog.Info("snapshot_fetched", "events", len(events), "took", time.Since(start))
	return events, nil
}

// dispatch delivers alerts to every sink in input order. A single failed
// delivery is logged and skipped; it never blocks the remaining alerts.
func (r *Runner) dispatch(ctx context.Context, alerts []store.Alert) int {
	dispatched := 0
	for _, alert := range alerts {
		if r.tracker != nil {
			r.tracker.AlertEmitted(alert.Kind)
		}
		message := notify.FormatAlert(alert)

		delivered := false
		for _, sink := range r.sinks {
			if err := sink.Send(ctx, message); err != nil {
				r.notifyFailed(sink.Name())
				slog.Error("alert_send_failed",
					"sink", sink.Name(),
					"kind", alert.Kind,
					"event", alert.Event.ID,
					"error", err,
				)
				continue
			}
			delivered = true
		}
		if delivered {
			dispatched++
		}
	}
	return dispatched
}

func (r *Runner) scanFailed(stage string) {
	if r.tracker != nil {
		r.tracker.ScanFailed(stage)
	}
}

func (r *Runner) notifyFailed(sink string) {
	if r.tracker != nil {
		r.tracker.NotifyFailed(sink)
	}
}
