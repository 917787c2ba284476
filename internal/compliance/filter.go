// Package compliance removes events whose title matches an exclusion policy.
package compliance

import (
	"strings"

	"github.com/futureheadlines/radar/internal/store"
)

// Filter excludes events whose title contains any of the configured keywords.
// Matching is case-insensitive so a feed-side capitalization change cannot
// open a compliance gap.
type Filter struct {
	keywords []string // pre-lowercased
}

// NewFilter creates a Filter for the given keywords.
func NewFilter(keywords []string) *Filter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			lowered = append(lowered, strings.ToLower(kw))
		}
	}
	return &Filter{keywords: lowered}
}

// Passes reports whether the event is allowed through the filter.
func (f *Filter) Passes(event store.Event) bool {
	title := strings.ToLower(event.Title)
	for _, kw := range f.keywords {
		if strings.Contains(title, kw) {
			return false
		}
	}
	return true
}

// Apply returns the events that pass the filter, preserving input order.
// Excluded events leave no trace: they are never evaluated and never persisted.
func (f *Filter) Apply(events []store.Event) []store.Event {
	passed := make([]store.Event, 0, len(events))
	for _, event := range events {
		if f.Passes(event) {
			passed = append(passed, event)
		}
	}
	return passed
}
