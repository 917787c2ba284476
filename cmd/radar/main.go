// Package main is the entry point for the Future Headlines radar.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/futureheadlines/radar/internal/compliance"
	"github.com/futureheadlines/radar/internal/config"
	"github.com/futureheadlines/radar/internal/engine"
	"github.com/futureheadlines/radar/internal/feed"
	"github.com/futureheadlines/radar/internal/metrics"
	"github.com/futureheadlines/radar/internal/notify"
	"github.com/futureheadlines/radar/internal/runner"
	"github.com/futureheadlines/radar/internal/watch"
)

// TickChannelBuffer is the size of the buffered live tick channel
const TickChannelBuffer = 1000

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	daily := flag.Bool("daily", false, "run a single daily briefing and exit")
	live := flag.Bool("live", false, "stream live prices between scans")
	telegram := flag.Bool("telegram", false, "enable Telegram push notifications")
	token := flag.String("token", "", "Telegram bot token (overrides TELEGRAM_BOT_TOKEN)")
	chatID := flag.String("chat-id", "", "Telegram chat ID (overrides TELEGRAM_CHAT_ID)")
	historyPath := flag.String("history-path", "", "history file path (overrides HISTORY_PATH)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *telegram, *token, *chatID, *historyPath)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("radar starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"gamma_api_url", cfg.GammaAPIURL,
		"market_limit", cfg.MarketLimit,
		"history_path", cfg.HistoryPath,
		"change_threshold", cfg.ChangeThreshold,
		"delta_threshold", cfg.DeltaThreshold,
		"high_volume_threshold", cfg.HighVolumeThreshold,
		"exclude_keywords", len(cfg.ExcludeKeywords),
		"telegram_enabled", cfg.EnableTelegram,
		"telegram_token", cfg.MaskedBotToken(),
		"scan_schedule", cfg.ScanSchedule,
		"metrics_port", cfg.MetricsPort,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wire the run pipeline
	client := feed.NewClient(cfg.GammaAPIURL, cfg.MarketLimit, cfg.FetchTimeout)
	filter := compliance.NewFilter(cfg.ExcludeKeywords)
	sinks := buildSinks(cfg)
	thresholds := engine.Thresholds{
		Change:     cfg.ChangeThreshold,
		Delta:      cfg.DeltaThreshold,
		HighVolume: cfg.HighVolumeThreshold,
	}

	// One-shot modes run without metrics or the live stream
	if *once || *daily {
		run := runner.New(client, filter, sinks, nil, cfg.HistoryPath, thresholds)
		var err error
		if *daily {
			err = run.ScanDaily(ctx)
		} else {
			err = run.Scan(ctx)
		}
		if err != nil {
			slog.Error("scan_failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Continuous mode: metrics server, scheduled scans, optional live stream
	tracker := metrics.NewTracker(nil)
	run := runner.New(client, filter, sinks, tracker, cfg.HistoryPath, thresholds)

	go func() {
		if err := metrics.Serve(cfg.MetricsPort); err != nil {
			slog.Error("metrics_server_failed", "error", err)
		}
	}()

	var listener *watch.Listener
	if *live {
		listener = startLiveWatch(ctx, cfg, client, tracker)
	}

	// SkipIfStillRunning upholds the single-flight invariant: a scan that
	// outlives its tick suppresses the next one instead of overlapping it.
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := scheduler.AddFunc(cfg.ScanSchedule, func() {
		if err := run.Scan(ctx); err != nil {
			slog.Error("scan_failed", "error", err)
		}
	}); err != nil {
		slog.Error("invalid scan schedule", "schedule", cfg.ScanSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	slog.Info("radar_started",
		"schedule", cfg.ScanSchedule,
		"live", *live,
		"sinks", len(sinks),
	)

	// Immediate first scan
	if err := run.Scan(ctx); err != nil {
		slog.Error("scan_failed", "error", err)
	}

	sig := <-sigChan
	slog.Info("shutdown_signal_received", "signal", sig.String())
	cancel()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		slog.Warn("scheduler_stop_timeout")
	}

	if listener != nil {
		listener.Stop()
	}

	slog.Info("shutdown_complete")
}

// applyFlags folds CLI overrides into the loaded configuration.
func applyFlags(cfg *config.Config, telegram bool, token, chatID, historyPath string) {
	if telegram {
		cfg.EnableTelegram = true
	}
	if token != "" {
		cfg.TelegramBotToken = token
	}
	if chatID != "" {
		cfg.TelegramChatID = chatID
	}
	if historyPath != "" {
		cfg.HistoryPath = historyPath
	}
}

// buildSinks assembles the notification sinks. The console sink is always
// active; Telegram joins only when enabled with both credentials.
func buildSinks(cfg *config.Config) []notify.Sink {
	sinks := []notify.Sink{notify.NewConsoleSink()}
	if cfg.EnableTelegram {
		sinks = append(sinks, notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID))
		slog.Info("telegram_sink_enabled", "chat_id", cfg.TelegramChatID)
	}
	return sinks
}

// startLiveWatch subscribes to the live price stream for the current markets
// and consumes ticks into the metrics gauge.
func startLiveWatch(ctx context.Context, cfg *config.Config, client *feed.Client, tracker *metrics.Tracker) *watch.Listener {
	tokenIDs, err := client.FetchTokenIDs(ctx)
	if err != nil {
		slog.Warn("failed to fetch token IDs, live watch starts unsubscribed", "error", err)
		tokenIDs = []string{}
	}

	tickChan := make(chan watch.PriceTick, TickChannelBuffer)
	listener := watch.NewListener(cfg.PolymarketWSURL, tokenIDs, tickChan)
	listener.Start(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-tickChan:
				tracker.RecordLivePrice(tick.AssetID, tick.Price)
				slog.Debug("live_tick",
					"asset", truncateID(tick.AssetID),
					"price", tick.Price,
				)
			}
		}
	}()

	return listener
}

// truncateID shortens an ID for logging.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:6] + "..." + id[len(id)-4:]
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
