// Package notify renders alerts and delivers them to the configured sinks.
package notify

import "context"

// Sink delivers a rendered message to one channel.
type Sink interface {
	// Name identifies the sink in logs
	Name() string

	// Send delivers one message. A failed delivery must not affect other
	// messages or the committed history state.
	Send(ctx context.Context, message string) error
}
