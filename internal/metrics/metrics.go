// Package metrics exposes Prometheus counters and gauges for the radar.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracker holds the radar's Prometheus instruments.
type Tracker struct {
	scansTotal     prometheus.Counter
	scanFailures   *prometheus.CounterVec
	eventsTotal    prometheus.Counter
	alertsTotal    *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
	historySize    prometheus.Gauge
	fetchDuration  prometheus.Summary
	lastTradePrice *prometheus.GaugeVec
}

// NewTracker creates and registers the radar metrics on the given registry.
// A nil registry uses the default one.
func NewTracker(reg prometheus.Registerer) *Tracker {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	t := &Tracker{
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "scans_total",
			Help:      "Number of completed scans",
		}),
		scanFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "scan_failures_total",
			Help:      "Number of failed scans by stage",
		}, []string{"stage"}),
		eventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "events_processed_total",
			Help:      "Number of events evaluated across all scans",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "alerts_total",
			Help:      "Number of alerts emitted by kind",
		}, []string{"kind"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "notify_failures_total",
			Help:      "Number of failed alert deliveries by sink",
		}, []string{"sink"}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "history_records",
			Help:      "Number of records in the committed history state",
		}),
		fetchDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "radar",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching the event snapshot",
		}),
		lastTradePrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radar",
			Name:      "last_trade_price",
			Help:      "Latest trade price per asset seen on the live stream",
		}, []string{"asset_id"}),
	}

	reg.MustRegister(
		t.scansTotal, t.scanFailures, t.eventsTotal, t.alertsTotal,
		t.notifyFailures, t.historySize, t.fetchDuration, t.lastTradePrice,
	)

	return t
}

// ScanCompleted records a finished scan and the size of the committed state.
func (t *Tracker) ScanCompleted(eventCount, historyCount int) {
	t.scansTotal.Inc()
	t.eventsTotal.Add(float64(eventCount))
	t.historySize.Set(float64(historyCount))
}

// ScanFailed records a scan that aborted at the given stage.
func (t *Tracker) ScanFailed(stage string) {
	t.scanFailures.WithLabelValues(stage).Inc()
}

// AlertEmitted records one emitted alert.
func (t *Tracker) AlertEmitted(kind string) {
	t.alertsTotal.WithLabelValues(kind).Inc()
}

// NotifyFailed records a failed delivery on a sink.
func (t *Tracker) NotifyFailed(sink string) {
	t.notifyFailures.WithLabelValues(sink).Inc()
}

// ObserveFetch records the duration of one snapshot fetch.
func (t *Tracker) ObserveFetch(d time.Duration) {
	t.fetchDuration.Observe(d.Seconds())
}

// RecordLivePrice records a price print from the live stream.
func (t *Tracker) RecordLivePrice(assetID string, price float64) {
	t.lastTradePrice.WithLabelValues(assetID).Set(price)
}

// Serve starts an HTTP server exposing /metrics on the given port. It blocks
// until the server fails, so callers run it in a goroutine.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
