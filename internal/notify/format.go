package notify

import (
	"fmt"
	"strings"

	"github.com/futureheadlines/radar/internal/store"
)

// FormatAlert renders an alert as a multi-line message. The same rendering is
// used for the console and for Telegram (plain text, no markup needed).
func FormatAlert(alert store.Alert) string {
	var header string
	switch alert.Kind {
	case store.AlertNewEvent:
		header = "🆕 [New Event]"
	case store.AlertNewVolatility:
		header = fmt.Sprintf("⚡ [New Volatility] %+.1f%%", alert.Magnitude)
	case store.AlertHighValue:
		header = "💰 [High-Value New Event]"
	default:
		header = "📊 [Event Update]"
	}

	category := alert.Event.Category
	if category == "" {
		category = "Uncategorized"
	}

	lines := []string{
		header,
		"",
		"📂 Category: " + category,
		"📰 Title: " + alert.Event.Title,
		fmt.Sprintf("📈 Cumulative Δ: %+.1f%%", alert.Event.PriceChange),
		"💵 Volume: " + formatVolume(alert.Event.Volume),
		"🔗 Link: " + alert.Event.Link,
	}

	return strings.Join(lines, "\n")
}

// formatVolume renders a USD amount with thousands separators.
func formatVolume(volume float64) string {
	if volume < 1000 {
		return fmt.Sprintf("$%.2f", volume)
	}
	return "$" + groupThousands(fmt.Sprintf("%.0f", volume))
}

// ShortVolume renders a USD amount in K/M shorthand for compact listings.
func ShortVolume(volume float64) string {
	switch {
	case volume >= 1_000_000:
		return fmt.Sprintf("%.1fM", volume/1_000_000)
	case volume >= 1_000:
		return fmt.Sprintf("%.1fK", volume/1_000)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}

// groupThousands inserts commas into a plain digit string.
func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
