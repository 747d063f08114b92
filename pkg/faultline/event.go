// event.go defines the canonical diagnostic event data structure for faultline.

package faultline

import "time"

// Level indicates the severity of a diagnostic event.
type Level string

const (
	// LevelDebug marks events that are only interesting during development.
	LevelDebug Level = "debug"

	// LevelInfo marks informational events.
	LevelInfo Level = "info"

	// LevelWarning marks non-fatal issues that may need attention.
	LevelWarning Level = "warning"

	// LevelError marks recoverable errors that caused an operation to fail.
	LevelError Level = "error"

	// LevelFatal marks unrecoverable errors such as a panic.
	LevelFatal Level = "fatal"
)

const (
	// PlatformOther is the platform an event carries before normalization.
	PlatformOther = "other"

	// PlatformNative is the platform the pipeline normalizes "other" to.
	PlatformNative = "native"
)

const (
	// DefaultFingerprint is the sentinel requesting default server-side grouping.
	DefaultFingerprint = "{{ default }}"

	// defaultFingerprintCompact is the whitespace-free spelling of the sentinel.
	defaultFingerprintCompact = "{{default}}"
)

// Breadcrumb is a small ordered log entry describing something that happened
// before an event of interest.
type Breadcrumb struct {
	Timestamp time.Time      `json:"timestamp,omitzero"`
	Type      string         `json:"type,omitempty"`
	Category  string         `json:"category,omitempty"`
	Message   string         `json:"message,omitempty"`
	Level     Level          `json:"level,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// User identifies the user that was active when an event occurred.
type User struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// Context is a named block of structured context data attached to an event.
type Context map[string]any

// Exception describes a single error or panic carried by an event.
type Exception struct {
	// Type is the error type name, e.g. "*net.OpError" or "panic".
	Type string `json:"type,omitempty"`

	// Value is the error message.
	Value string `json:"value,omitempty"`

	// Module is the module the error originated in, when known.
	Module string `json:"module,omitempty"`

	// Stacktrace is the optional stack trace captured with the error.
	Stacktrace *Stacktrace `json:"stacktrace,omitempty"`
}

// SDKInfo describes the client library that produced an event.
type SDKInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DebugImage describes a loaded code object referenced by stack frames.
type DebugImage struct {
	Type     string `json:"type"`
	CodeFile string `json:"code_file,omitempty"`
	CodeID   string `json:"code_id,omitempty"`
	Arch     string `json:"arch,omitempty"`
}

// DebugMeta carries the debug images loaded when the event was captured.
type DebugMeta struct {
	Images []DebugImage `json:"images,omitempty"`
}

// Event is the canonical diagnostic record.
//
// An Event is owned by its creator until passed to Client.CaptureEvent, which
// mutates it once (scope merge, defaulting, frame classification) and then
// moves it into the transport. Events must not be reused after capture.
//
// Fields set before capture are never overwritten by the pipeline. Scope data
// only fills absent fields or appends to collections; tags, extra, and
// contexts are the exception and merge per key with scope entries winning on
// collision.
type Event struct {
	// EventID is a unique identifier for this event (UUID string).
	// Generated by the transport when empty.
	EventID string `json:"event_id,omitempty"`

	// Timestamp is when the event occurred. Filled by the transport when zero.
	Timestamp time.Time `json:"timestamp,omitzero"`

	// Level indicates the event severity.
	Level Level `json:"level,omitempty"`

	// Message is the human-readable description of the event.
	Message string `json:"message,omitempty"`

	// Logger names the logger that produced the event, if any.
	Logger string `json:"logger,omitempty"`

	// Platform identifies the producing platform. The value "other" is
	// normalized to "native" during preparation.
	Platform string `json:"platform,omitempty"`

	// Transaction names the transaction or operation in progress.
	Transaction string `json:"transaction,omitempty"`

	// ServerName is the reporting host.
	ServerName string `json:"server_name,omitempty"`

	// Release is the application release the event was produced by.
	Release string `json:"release,omitempty"`

	// Environment is the deployment environment, e.g. "production".
	Environment string `json:"environment,omitempty"`

	// Fingerprint controls server-side grouping. A single DefaultFingerprint
	// entry means "unset, use default grouping" and may be replaced by a
	// scope override during preparation.
	Fingerprint []string `json:"fingerprint,omitempty"`

	// Breadcrumbs are ordered and append-only during scope merging.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`

	// User identifies the active user, when known.
	User *User `json:"user,omitempty"`

	// Tags are short indexed key-value pairs.
	Tags map[string]string `json:"tags,omitempty"`

	// Extra holds arbitrary structured values attached to the event.
	Extra map[string]any `json:"extra,omitempty"`

	// Contexts holds named structured context blocks (runtime, device, ...).
	Contexts map[string]Context `json:"contexts,omitempty"`

	// Exceptions carries the errors reported by this event.
	Exceptions []Exception `json:"exception,omitempty"`

	// SDK describes the producing client library. Filled once when nil.
	SDK *SDKInfo `json:"sdk,omitempty"`

	// DebugMeta lists loaded debug images. Filled once when empty.
	DebugMeta DebugMeta `json:"debug_meta,omitzero"`
}

// NewEvent creates an event with the platform and fingerprint defaults that
// the preparation pipeline expects.
func NewEvent() *Event {
	return &Event{
		Platform:    PlatformOther,
		Fingerprint: []string{DefaultFingerprint},
		Timestamp:   time.Now().UTC(),
	}
}

// hasDefaultFingerprint reports whether the event fingerprint is exactly the
// single-element default sentinel, in either spelling.
func hasDefaultFingerprint(fingerprint []string) bool {
	return len(fingerprint) == 1 &&
		(fingerprint[0] == DefaultFingerprint || fingerprint[0] == defaultFingerprintCompact)
}
