package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleSink writes messages to a writer, stdout by default. It is the
// always-available fallback channel.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

// NewConsoleSinkTo creates a console sink writing to w.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

// Name implements Sink.
func (s *ConsoleSink) Name() string { return "console" }

// Send implements Sink.
func (s *ConsoleSink) Send(_ context.Context, message string) error {
	_, err := fmt.Fprintln(s.out, message+"\n")
	return err
}
