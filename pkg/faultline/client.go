// client.go provides the Client, which prepares diagnostic events and hands
// them to a delivery transport.

package faultline

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client holds configuration and an optional delivery transport. A client
// without a transport is disabled: a first-class, valid state in which every
// capture is a silent no-op. Clients are cheap to share across goroutines.
type Client struct {
	options   ClientOptions
	transport Transport
}

// NewClient builds a client from options. The delivery endpoint is resolved
// in order: options.Transport, options.DSN, the FAULTLINE_DSN environment
// variable. A malformed explicit DSN is an error; a malformed environment
// value is ignored. When no endpoint resolves the client comes up disabled,
// which is not an error.
func NewClient(options ClientOptions) (*Client, error) {
	options = options.withDefaults()

	if options.Transport != nil {
		return &Client{options: options, transport: options.Transport}, nil
	}

	var dsn *DSN
	if options.DSN != "" {
		parsed, err := ParseDSN(options.DSN)
		if err != nil {
			return nil, fmt.Errorf("faultline: %w", err)
		}
		dsn = parsed
	} else if fromEnv := os.Getenv(dsnEnvVar); fromEnv != "" {
		if parsed, err := ParseDSN(fromEnv); err == nil {
			dsn = parsed
		}
	}

	return NewClientWithDSN(dsn, options), nil
}

// NewClientWithDSN builds a client for a pre-parsed DSN. This path never
// fails; a nil DSN yields a disabled client.
func NewClientWithDSN(dsn *DSN, options ClientOptions) *Client {
	options = options.withDefaults()
	c := &Client{options: options}
	if dsn != nil {
		c.transport = NewHTTPTransport(dsn, options.UserAgent,
			WithTransportLogger(options.Logger))
	}
	return c
}

// DisabledClient builds a client that never sends anything. Useful when
// general reporting plumbing is wanted but no endpoint is available yet.
func DisabledClient(options ClientOptions) *Client {
	return &Client{options: options.withDefaults()}
}

// Options returns the client's configuration.
func (c *Client) Options() ClientOptions {
	return c.options
}

// DSN returns the endpoint this client reports to, or nil when disabled.
func (c *Client) DSN() *DSN {
	if c.transport == nil {
		return nil
	}
	return c.transport.DSN()
}

// Enabled reports whether the client has a delivery transport.
func (c *Client) Enabled() bool {
	return c.transport != nil
}

// CaptureEvent merges the scope into the event, applies configured defaults,
// classifies stack frames, and hands the finalized event to the transport.
// The event is consumed and must not be reused.
//
// On a disabled client this performs no enrichment and returns uuid.Nil; it
// never blocks and never fails. An event dropped by BeforeSend also yields
// uuid.Nil.
func (c *Client) CaptureEvent(event *Event, scope *Scope) uuid.UUID {
	if c.transport == nil || event == nil {
		return uuid.Nil
	}

	c.prepareEvent(event, scope)

	if c.options.BeforeSend != nil {
		if event = c.options.BeforeSend(event); event == nil {
			return uuid.Nil
		}
	}

	return c.transport.SendEvent(event)
}

// CaptureError captures err as an error-level event with the caller's stack.
func (c *Client) CaptureError(err error, scope *Scope) uuid.UUID {
	if err == nil {
		return uuid.Nil
	}
	event := NewEvent()
	event.Level = LevelError
	event.Exceptions = []Exception{{
		Type:       fmt.Sprintf("%T", err),
		Value:      err.Error(),
		Stacktrace: CurrentStacktrace(1),
	}}
	return c.CaptureEvent(event, scope)
}

// CaptureMessage captures a bare message at the given level.
func (c *Client) CaptureMessage(message string, level Level, scope *Scope) uuid.UUID {
	event := NewEvent()
	event.Level = level
	event.Message = message
	return c.CaptureEvent(event, scope)
}

// Drain blocks until the transport's queue empties or the timeout elapses
// and reports whether it fully drained. A timeout of zero or less blocks
// indefinitely. On a disabled client there is nothing to drain and Drain
// returns true immediately. Safe for concurrent callers.
func (c *Client) Drain(timeout time.Duration) bool {
	if c.transport == nil {
		return true
	}
	return c.transport.Drain(timeout)
}

// Close releases the transport. The client behaves as disabled afterwards
// in the sense that nothing further is delivered.
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

// prepareEvent applies the scope merge, option defaulting, and frame
// classification, in that order. Fields already populated on the event are
// never overwritten; scope data fills absent fields or appends to
// collections. Tags, extra, and contexts are the deliberate exception: they
// merge per key, scope entries winning on collision, while user, transaction,
// and fingerprint follow whole-field precedence.
func (c *Client) prepareEvent(event *Event, scope *Scope) {
	if scope != nil {
		c.applyScope(event, scope)
	}

	if event.Release == "" {
		event.Release = c.options.Release
	}
	if event.Environment == "" {
		event.Environment = c.options.Environment
	}
	if event.ServerName == "" {
		event.ServerName = c.options.ServerName
	}
	if event.SDK == nil {
		event.SDK = defaultSDKInfo()
	}

	// Always normalize the platform sentinel; this is not a fill-if-empty rule.
	if event.Platform == PlatformOther {
		event.Platform = PlatformNative
	}

	if len(event.DebugMeta.Images) == 0 {
		event.DebugMeta.Images = defaultDebugImages()
	}

	if c.options.DisableBacktraceTrimming {
		return
	}
	for i := range event.Exceptions {
		st := event.Exceptions[i].Stacktrace
		if st == nil {
			continue
		}
		TrimStacktrace(st, func(frame *Frame, _ *Stacktrace) bool {
			return slices.Contains(c.options.ExtraBorderFrames, frame.Function)
		})
		c.classifyFrames(st)
	}
}

// applyScope merges a context snapshot into the event. Empty scope
// collections are skipped entirely; merging never replaces a populated
// whole field.
func (c *Client) applyScope(event *Event, scope *Scope) {
	if len(scope.Breadcrumbs) > 0 {
		event.Breadcrumbs = append(event.Breadcrumbs, cloneBreadcrumbs(scope.Breadcrumbs)...)
	}

	if event.User == nil && scope.User != nil {
		user := *scope.User
		event.User = &user
	}

	if len(scope.Extra) > 0 {
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(scope.Extra))
		}
		for k, v := range scope.Extra {
			event.Extra[k] = v
		}
	}

	if len(scope.Tags) > 0 {
		if event.Tags == nil {
			event.Tags = make(map[string]string, len(scope.Tags))
		}
		for k, v := range scope.Tags {
			event.Tags[k] = v
		}
	}

	if len(scope.Contexts) > 0 {
		if event.Contexts == nil {
			event.Contexts = make(map[string]Context, len(scope.Contexts))
		}
		for k, v := range scope.Contexts {
			event.Contexts[k] = v
		}
	}

	if event.Transaction == "" {
		event.Transaction = scope.Transaction
	}

	if hasDefaultFingerprint(event.Fingerprint) && scope.Fingerprint != nil {
		event.Fingerprint = append([]string{}, scope.Fingerprint...)
	}
}

// classifyFrames primes in_app and package on every frame of a trace.
// Rule precedence per frame is fixed: an explicit flag wins, then the
// exclude list, then the include list, then the system-function heuristic.
// When no frame ends up in-app, every still-unset frame becomes in-app so
// that at least some frames are emphasized for grouping.
func (c *Client) classifyFrames(st *Stacktrace) {
	anyInApp := false
	for i := range st.Frames {
		frame := &st.Frames[i]
		if frame.Function == "" {
			continue
		}

		if frame.Package == "" {
			frame.Package = extractModuleName(frame.Function)
		}

		switch frame.InApp {
		case InAppTrue:
			anyInApp = true
			continue
		case InAppFalse:
			continue
		}

		for _, prefix := range c.options.InAppExclude {
			if strings.HasPrefix(frame.Function, prefix) {
				frame.InApp = InAppFalse
				break
			}
		}
		if frame.InApp != InAppUnset {
			continue
		}

		for _, prefix := range c.options.InAppInclude {
			if strings.HasPrefix(frame.Function, prefix) {
				frame.InApp = InAppTrue
				anyInApp = true
				break
			}
		}
		if frame.InApp != InAppUnset {
			continue
		}

		if isSysFunction(frame.Function) {
			frame.InApp = InAppFalse
		}
	}

	if !anyInApp {
		for i := range st.Frames {
			if st.Frames[i].InApp == InAppUnset {
				st.Frames[i].InApp = InAppTrue
			}
		}
	}
}

func cloneBreadcrumbs(crumbs []Breadcrumb) []Breadcrumb {
	cloned := make([]Breadcrumb, len(crumbs))
	copy(cloned, crumbs)
	for i := range cloned {
		if len(crumbs[i].Data) > 0 {
			data := make(map[string]any, len(crumbs[i].Data))
			for k, v := range crumbs[i].Data {
				data[k] = v
			}
			cloned[i].Data = data
		}
	}
	return cloned
}
