// scrub.go implements fail-closed sensitive data redaction for events.

package faultline

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitiveKeyPatterns contains additional substrings marking sensitive
	// tag/extra/breadcrumb-data keys. A built-in set is always applied.
	SensitiveKeyPatterns []string

	// MaxMessageSize is the maximum length for event and exception messages
	// (default: 4096).
	MaxMessageSize int

	// MaxValueSize is the maximum length for scrubbed string values in tags,
	// extra, and breadcrumb data (default: 1024).
	MaxValueSize int

	// ScrubMessages enables scrubbing of messages for secrets/PII
	// (default: true).
	ScrubMessages bool

	// FailClosed enables fail-closed behavior: on any scrub error the field
	// is fully redacted (default: true).
	FailClosed bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize: 4096,
		MaxValueSize:   1024,
		ScrubMessages:  true,
		FailClosed:     true,
	}
}

// Compiled regex patterns for message scrubbing (compiled once at package init)
var messageScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?[\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`(?i)gho_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`(?i)github_pat_[a-zA-Z0-9_]{22,}`),
	regexp.MustCompile(`(?i)xox[baprs]-[a-zA-Z0-9\-]{10,}`),
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)passwd[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)credential[=:\s]+['"]?[^\s'"",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
}

// Sensitive key patterns (case-insensitive substring match)
var sensitiveKeyPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"auth",
	"passwd",
}

// Path patterns to normalize in stack frame filenames
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
	regexp.MustCompile(`/tmp/[^/]+/`),
}

// Scrubber redacts sensitive data from events before delivery.
type Scrubber struct {
	cfg ScrubberConfig
}

// NewScrubber creates a scrubber with the given configuration.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = 1024
	}
	return &Scrubber{cfg: cfg}
}

// BeforeSend scrubs the event in place and returns it. Assign it to
// ClientOptions.BeforeSend to scrub every captured event:
//
//	scrubber := faultline.NewScrubber(faultline.DefaultScrubberConfig())
//	options.BeforeSend = scrubber.BeforeSend
func (s *Scrubber) BeforeSend(event *Event) *Event {
	s.ScrubEvent(event)
	return event
}

// ScrubEvent redacts sensitive data across all user-controlled event fields.
func (s *Scrubber) ScrubEvent(event *Event) {
	event.Message = s.ScrubMessage(event.Message)

	for i := range event.Exceptions {
		event.Exceptions[i].Value = s.ScrubMessage(event.Exceptions[i].Value)
		if st := event.Exceptions[i].Stacktrace; st != nil {
			for j := range st.Frames {
				st.Frames[j].Filename = normalizePath(st.Frames[j].Filename)
			}
		}
	}

	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = s.ScrubMessage(event.Breadcrumbs[i].Message)
		event.Breadcrumbs[i].Data = s.scrubValueMap(event.Breadcrumbs[i].Data)
	}

	event.Extra = s.scrubValueMap(event.Extra)

	for key, value := range event.Tags {
		if s.isSensitiveKey(key) {
			event.Tags[key] = "[REDACTED]"
		} else {
			event.Tags[key] = truncateWithMarker(s.ScrubMessage(value), s.cfg.MaxValueSize)
		}
	}
}

// ScrubMessage redacts secrets and PII from a message and bounds its size.
func (s *Scrubber) ScrubMessage(message string) string {
	if message == "" {
		return ""
	}
	if s.cfg.ScrubMessages {
		for _, pattern := range messageScrubPatterns {
			message = pattern.ReplaceAllString(message, "[REDACTED]")
		}
	}
	return truncateWithMarker(message, s.cfg.MaxMessageSize)
}

// scrubValueMap scrubs an arbitrary value map. Sensitive keys redact the
// whole value; string values are scrubbed like messages; other values must
// survive a JSON round trip or are redacted when failing closed.
func (s *Scrubber) scrubValueMap(values map[string]any) map[string]any {
	if len(values) == 0 {
		return values
	}
	for key, value := range values {
		if s.isSensitiveKey(key) {
			values[key] = "[REDACTED]"
			continue
		}
		switch v := value.(type) {
		case string:
			values[key] = truncateWithMarker(s.ScrubMessage(v), s.cfg.MaxValueSize)
		case nil, bool, int, int32, int64, uint64, float32, float64:
			// Primitives carry no scrubbable text.
		default:
			if _, err := json.Marshal(v); err != nil && s.cfg.FailClosed {
				values[key] = "[REDACTED:SCRUB_ERROR]"
			}
		}
	}
	return values
}

// isSensitiveKey checks if a key matches sensitive patterns.
func (s *Scrubber) isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, pattern := range s.cfg.SensitiveKeyPatterns {
		if strings.Contains(keyLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// normalizePath strips user-identifying path segments from a file path.
func normalizePath(path string) string {
	for _, pattern := range pathNormalizationPatterns {
		path = pattern.ReplaceAllString(path, "")
	}
	return path
}

// truncateWithMarker truncates a string and adds a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return s[:maxLen-len(marker)] + marker
}
