package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/futureheadlines/radar/internal/store"
)

const (
	// topVolumeCount and topGainerCount size the daily briefing sections
	topVolumeCount = 5
	topGainerCount = 3
)

// DailyReport builds the morning briefing: the top markets by volume and the
// top gainers by 24h change, with titles linked to the market page. Returns
// an empty string when there is nothing to report.
func DailyReport(events []store.Event, now time.Time) string {
	if len(events) == 0 {
		return ""
	}

	byVolume := make([]store.Event, len(events))
	copy(byVolume, events)
	sort.SliceStable(byVolume, func(i, j int) bool {
		return byVolume[i].Volume > byVolume[j].Volume
	})

	byGain := make([]store.Event, len(events))
	copy(byGain, events)
	sort.SliceStable(byGain, func(i, j int) bool {
		return byGain[i].PriceChange > byGain[j].PriceChange
	})

	lines := []string{
		"☀️ FH Daily Briefing: where is the money betting?",
		"🕐 Scanned at: " + now.Format("2006-01-02 15:04:05"),
		"",
		"🔥 Top Volume",
	}
	lines = append(lines, reportItems(byVolume, topVolumeCount)...)
	lines = append(lines, "", "🚀 Top Gainers")
	lines = append(lines, reportItems(byGain, topGainerCount)...)

	return strings.Join(lines, "\n")
}

// reportItems renders up to n briefing lines.
func reportItems(events []store.Event, n int) []string {
	if len(events) == 0 {
		return []string{"(no data)"}
	}
	if len(events) > n {
		events = events[:n]
	}

	items := make([]string, 0, n)
	for _, event := range events {
		title := html.EscapeString(event.Title)
		if event.Link != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, event.Link, title)
		}
		items = append(items, fmt.Sprintf("• %s | prob %.1f%% | vol %s",
			title, event.Probability, ShortVolume(event.Volume)))
	}
	return items
}
