// Package stderr provides a sink that logs events to stderr in human-readable
// format. Useful for development and debugging.
package stderr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// StderrSinkOption configures the stderr sink.
type StderrSinkOption func(*stderrSinkConfig)

type stderrSinkConfig struct {
	verbose bool
}

// WithVerbose enables full event details including stack traces and
// breadcrumbs.
func WithVerbose() StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.verbose = true
	}
}

// stderrSink writes events to stderr in human-readable format.
type stderrSink struct {
	verbose bool
}

// NewStderrSink creates a sink that writes to stderr.
func NewStderrSink(opts ...StderrSinkOption) faultline.Sink {
	cfg := &stderrSinkConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrSink{
		verbose: cfg.verbose,
	}
}

// Write formats and outputs the event to stderr.
func (s *stderrSink) Write(ctx context.Context, event *faultline.Event) error {
	level := strings.ToUpper(string(event.Level))
	if level == "" {
		level = "ERROR"
	}

	// Main line format:
	// [FAULTLINE] <timestamp> <LEVEL> <exception type> in <transaction> (release: <release>)
	timestamp := event.Timestamp.Format("2006-01-02T15:04:05Z07:00")

	var parts []string
	parts = append(parts, fmt.Sprintf("[FAULTLINE] %s %s", timestamp, level))

	if len(event.Exceptions) > 0 && event.Exceptions[0].Type != "" {
		parts = append(parts, event.Exceptions[0].Type)
	}
	if event.Transaction != "" {
		parts = append(parts, fmt.Sprintf("in %s", event.Transaction))
	}
	if event.Release != "" {
		parts = append(parts, fmt.Sprintf("(release: %s)", event.Release))
	}

	fmt.Fprintln(os.Stderr, strings.Join(parts, " "))

	if event.Message != "" {
		fmt.Fprintf(os.Stderr, "        Message: %s\n", event.Message)
	}

	for _, exc := range event.Exceptions {
		if exc.Value != "" {
			fmt.Fprintf(os.Stderr, "        Error: %s\n", exc.Value)
		}
	}

	if event.EventID != "" {
		fmt.Fprintf(os.Stderr, "        Event ID: %s\n", event.EventID)
	}

	if len(event.Tags) > 0 {
		var tags []string
		for k, v := range event.Tags {
			tags = append(tags, fmt.Sprintf("%s=%s", k, v))
		}
		fmt.Fprintf(os.Stderr, "        Tags: %s\n", strings.Join(tags, " "))
	}

	if s.verbose {
		s.writeStacktraces(event)
		s.writeBreadcrumbs(event)
	}

	return nil
}

func (s *stderrSink) writeStacktraces(event *faultline.Event) {
	for _, exc := range event.Exceptions {
		if exc.Stacktrace == nil || len(exc.Stacktrace.Frames) == 0 {
			continue
		}
		fmt.Fprintf(os.Stderr, "        Stack trace:\n")
		// Frames are stored oldest-first; print the newest call on top.
		frames := exc.Stacktrace.Frames
		for i := len(frames) - 1; i >= 0; i-- {
			frame := frames[i]
			fmt.Fprintf(os.Stderr, "          %s\n", frame.Function)
			if frame.Filename != "" {
				fmt.Fprintf(os.Stderr, "            %s:%d\n", frame.Filename, frame.Line)
			}
		}
	}
}

func (s *stderrSink) writeBreadcrumbs(event *faultline.Event) {
	if len(event.Breadcrumbs) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "        Breadcrumbs:\n")
	for _, crumb := range event.Breadcrumbs {
		line := crumb.Message
		if crumb.Category != "" {
			line = fmt.Sprintf("[%s] %s", crumb.Category, line)
		}
		fmt.Fprintf(os.Stderr, "          %s\n", line)
	}
}

// Flush is a no-op for stderr sink.
func (s *stderrSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for stderr sink.
func (s *stderrSink) Close() error {
	return nil
}
