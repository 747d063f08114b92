// builders.go provides helper functions to build events from errors and panics.

package agentssdk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// buildErrorEvent creates an event from an error surfaced at the runner
// boundary.
func buildErrorEvent(err error) *faultline.Event {
	event := faultline.NewEvent()
	event.Level = faultline.LevelError
	event.Message = err.Error()
	event.Tags = map[string]string{
		"error_kind": classifyError(err),
	}
	event.Exceptions = []faultline.Exception{
		{
			Type:       fmt.Sprintf("%T", err),
			Value:      err.Error(),
			Stacktrace: faultline.CurrentStacktrace(2),
		},
	}
	event.Contexts = map[string]faultline.Context{
		"runtime": faultline.RuntimeContext(),
	}
	return event
}

// buildPanicEvent creates an event from a recovered panic value.
func buildPanicEvent(recovered any) *faultline.Event {
	event := faultline.EventFromPanic(recovered)
	if event.Tags == nil {
		event.Tags = make(map[string]string)
	}
	event.Tags["error_kind"] = "panic"
	return event
}

// classifyError determines the error kind based on the error.
func classifyError(err error) string {
	if err == nil {
		return "error"
	}

	// Check for context errors
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	// Check for guardrail-related errors by message pattern.
	// This is a heuristic; the SDK does not expose typed guardrail errors.
	if containsGuardrailPattern(err.Error()) {
		return "guardrail"
	}

	return "error"
}

// containsGuardrailPattern checks if an error message indicates a guardrail
// violation.
func containsGuardrailPattern(msg string) bool {
	patterns := []string{
		"guardrail",
		"content policy",
		"safety filter",
		"blocked by policy",
	}
	lower := strings.ToLower(msg)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
