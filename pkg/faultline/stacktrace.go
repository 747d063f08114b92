// stacktrace.go models stack traces and implements border trimming, in-app
// classification, and module name extraction over their frames.

package faultline

import (
	"regexp"
	"runtime"
	"strings"
)

// InAppFlag is the three-state in-app classification of a stack frame.
// The zero value means the frame has not been classified yet.
type InAppFlag int8

const (
	// InAppUnset means no classification has been applied.
	InAppUnset InAppFlag = iota

	// InAppTrue marks a frame as application code.
	InAppTrue

	// InAppFalse marks a frame as runtime or third-party code.
	InAppFalse
)

// MarshalJSON encodes the flag as a plain boolean. Unset flags are omitted
// from the wire format via omitzero, so this only sees true and false.
func (f InAppFlag) MarshalJSON() ([]byte, error) {
	if f == InAppTrue {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// UnmarshalJSON decodes a boolean into the flag. Null means unset.
func (f *InAppFlag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*f = InAppTrue
	case "false":
		*f = InAppFalse
	default:
		*f = InAppUnset
	}
	return nil
}

// Frame is a single stack frame. Function and Package are empty when unknown.
type Frame struct {
	Function string    `json:"function,omitempty"`
	Package  string    `json:"package,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Line     int       `json:"lineno,omitempty"`
	InApp    InAppFlag `json:"in_app,omitzero"`
}

// Stacktrace is an ordered sequence of frames, oldest call first.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

// wellKnownBorderFrames are function names that mark the boundary between
// useful frames and runtime entry or panic machinery at the tail of a trace.
var wellKnownBorderFrames = map[string]bool{
	"std::panicking::begin_panic":          true,
	"std::panicking::rust_panic_with_hook": true,
	"core::panicking::panic":               true,
	"core::panicking::panic_fmt":           true,
	"failure::backtrace::Backtrace::new":   true,
	"error_chain::make_backtrace":          true,
	"runtime.gopanic":                      true,
}

// wellKnownSysModules are function name prefixes of standard library and
// runtime code that is never application code.
var wellKnownSysModules = []string{
	"std::",
	"core::",
	"alloc::",
	"backtrace::",
	"faultline::",
	"runtime.",
	"runtime/",
	"reflect.",
	"testing.",
}

// TrimStacktrace removes the trace tail starting at the last frame whose
// function name is a well-known border frame or for which isBorder returns
// true. That frame and everything after it is dropped. Frames without a
// function name never match.
func TrimStacktrace(st *Stacktrace, isBorder func(frame *Frame, st *Stacktrace) bool) {
	for i := len(st.Frames) - 1; i >= 0; i-- {
		frame := &st.Frames[i]
		if frame.Function == "" {
			continue
		}
		if wellKnownBorderFrames[frame.Function] || isBorder(frame, st) {
			st.Frames = st.Frames[:i]
			return
		}
	}
}

// moduleNameRe matches the leading module identifier of a qualified function
// name. An optional closure wrapper marker may precede the identifier, and the
// identifier is terminated by one of the two path separator tokens.
var moduleNameRe = regexp.MustCompile(`^(?:_<)?([a-zA-Z0-9_]+?)(?:\.\.|::)`)

// extractModuleName extracts the leading module identifier from a possibly
// mangled qualified function name. It returns the empty string when the name
// has no recognizable module prefix; that is not an error.
func extractModuleName(function string) string {
	m := moduleNameRe.FindStringSubmatch(function)
	if m == nil {
		return ""
	}
	return m[1]
}

// isSysFunction reports whether the function name belongs to runtime or
// standard library code.
func isSysFunction(function string) bool {
	name := strings.TrimPrefix(function, "_<")
	for _, module := range wellKnownSysModules {
		if strings.HasPrefix(name, module) {
			return true
		}
	}
	return false
}

// CurrentStacktrace captures the calling goroutine's stack as a Stacktrace in
// oldest-call-first order. skip drops that many additional frames beyond the
// capture machinery itself; frames belonging to this module are filtered out.
func CurrentStacktrace(skip int) *Stacktrace {
	pcs := make([]uintptr, 100)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	callers := runtime.CallersFrames(pcs[:n])
	var frames []Frame
	for {
		caller, more := callers.Next()
		// Frames of this module are capture machinery, not application code.
		// Test files are exempt so the capture itself stays testable.
		internal := strings.HasPrefix(caller.Function, modulePath) &&
			!strings.HasSuffix(caller.File, "_test.go")
		if caller.Function != "" && !internal {
			frames = append(frames, Frame{
				Function: caller.Function,
				Filename: caller.File,
				Line:     caller.Line,
			})
		}
		if !more {
			break
		}
	}
	if len(frames) == 0 {
		return nil
	}

	// Reverse into oldest-call-first order.
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return &Stacktrace{Frames: frames}
}
