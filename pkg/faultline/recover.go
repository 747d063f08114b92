// recover.go provides the Recover helper for standalone panic capture.
// Use this in HTTP handlers, goroutines, or other code outside a framework
// adapter.

package faultline

import (
	"context"
	"fmt"
)

// Recover captures a panic, reports it to the client, and returns the
// recovered value. Recover does NOT re-panic after reporting.
//
// Use in defer:
//
//	func handler(ctx context.Context) {
//	    defer faultline.Recover(ctx, client)
//	    // code that might panic
//	}
//
// When client is nil, the client attached to the context (WithClient) is
// used; a scope attached to the context (WithScope) is merged into the
// event. Without a client the panic value is still swallowed and returned.
func Recover(ctx context.Context, client *Client) any {
	r := recover()
	if r == nil {
		return nil
	}

	if client == nil {
		client, _ = ClientFromContext(ctx)
	}
	if client == nil {
		return r
	}

	scope, _ := ScopeFromContext(ctx)
	client.CaptureEvent(EventFromPanic(r), scope)
	return r
}

// EventFromPanic builds a fatal event from a recovered panic value with the
// current stack trace and a runtime context block attached.
func EventFromPanic(recovered any) *Event {
	event := NewEvent()
	event.Level = LevelFatal
	event.Exceptions = []Exception{{
		Type:       "panic",
		Value:      formatRecovered(recovered),
		Stacktrace: CurrentStacktrace(1),
	}}
	event.Contexts = map[string]Context{
		"runtime": RuntimeContext(),
	}
	return event
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
