// options.go defines the client configuration and its defaults.

package faultline

import (
	"log/slog"
	"os"
	"runtime/debug"
)

// defaultMaxBreadcrumbs bounds the breadcrumb trail kept by scope management.
const defaultMaxBreadcrumbs = 100

// ClientOptions configures a Client. The options are immutable once a client
// has been constructed from them; the client keeps its own copy.
type ClientOptions struct {
	// DSN is the raw endpoint address. When empty, the FAULTLINE_DSN
	// environment variable is consulted; when that is also absent the client
	// comes up disabled. A malformed explicit DSN is a construction error.
	DSN string

	// Transport overrides the delivery transport. When set, the DSN is not
	// consulted and the client is enabled.
	Transport Transport

	// InAppInclude lists function name prefixes that are always considered
	// application code.
	InAppInclude []string

	// InAppExclude lists function name prefixes that are never considered
	// application code. Exclusion wins over inclusion.
	InAppExclude []string

	// ExtraBorderFrames lists additional function names that mark the border
	// between useful frames and trimmable internals. Matched by exact
	// equality. Some border frames are built in.
	ExtraBorderFrames []string

	// MaxBreadcrumbs bounds the breadcrumb trail. Zero means the default of
	// 100; a negative value disables breadcrumb collection. The bound is
	// applied by scope management, not by event preparation.
	MaxBreadcrumbs int

	// DisableBacktraceTrimming turns off automatic trace trimming and frame
	// classification. Trimming is on by default.
	DisableBacktraceTrimming bool

	// Release is sent with events that do not carry their own.
	Release string

	// Environment is sent with events that do not carry their own. Defaults
	// to a build-mode derived value.
	Environment string

	// ServerName is sent with events that do not carry their own. Defaults
	// to the local host name when resolvable.
	ServerName string

	// UserAgent identifies this client to the ingest service.
	UserAgent string

	// BeforeSend runs after event preparation and before delivery. Returning
	// nil drops the event. Useful for scrubbing; see Scrubber.BeforeSend.
	BeforeSend func(event *Event) *Event

	// Logger receives delivery diagnostics (dropped events, send failures).
	// Nothing is logged on the capture path. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultClientOptions returns the options a zero-configuration client runs
// with.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxBreadcrumbs: defaultMaxBreadcrumbs,
		Environment:    defaultEnvironment(),
		ServerName:     defaultServerName(),
		UserAgent:      userAgent,
	}
}

// withDefaults fills unset fields without touching caller-provided values.
func (o ClientOptions) withDefaults() ClientOptions {
	if o.MaxBreadcrumbs == 0 {
		o.MaxBreadcrumbs = defaultMaxBreadcrumbs
	}
	if o.Environment == "" {
		o.Environment = defaultEnvironment()
	}
	if o.ServerName == "" {
		o.ServerName = defaultServerName()
	}
	if o.UserAgent == "" {
		o.UserAgent = userAgent
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "faultline")
	}
	return o
}

// defaultEnvironment derives the environment from the build: binaries built
// from a working tree report "development", released builds "production".
func defaultEnvironment() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version == "(devel)" {
		return "development"
	}
	return "production"
}

// defaultServerName resolves the local host name, or empty when that fails.
func defaultServerName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}
