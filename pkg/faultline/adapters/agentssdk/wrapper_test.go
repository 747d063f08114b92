package agentssdk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// capturingSink records delivered events for verification.
type capturingSink struct {
	mu     sync.Mutex
	events []*faultline.Event
}

func (s *capturingSink) Write(ctx context.Context, event *faultline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Flush(ctx context.Context) error { return nil }
func (s *capturingSink) Close() error                    { return nil }

func (s *capturingSink) getEvents() []*faultline.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*faultline.Event, len(s.events))
	copy(result, s.events)
	return result
}

func newTestWrapper(t *testing.T) (*WrappedRunner, *capturingSink) {
	t.Helper()
	sink := &capturingSink{}
	client, err := faultline.NewClient(faultline.ClientOptions{
		Transport: faultline.NewSinkTransport(nil, sink),
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	wrapper := NewWrappedRunner(nil, client, nil, nil)
	return wrapper, sink
}

func drainClient(t *testing.T, w *WrappedRunner) {
	t.Helper()
	if !w.client.Drain(time.Second) {
		t.Fatal("Drain timed out")
	}
}

func TestWrappedRunner_CaptureError_MergesRunScope(t *testing.T) {
	wrapper, sink := newTestWrapper(t)

	wrapper.scopes.Update("run-1", func(scope *faultline.Scope) {
		scope.Transaction = "tool:WebSearch"
		scope.Tags = map[string]string{"agent": "researcher"}
	})
	wrapper.scopes.AddBreadcrumb("run-1", faultline.Breadcrumb{
		Category: "tool",
		Message:  "tool started: WebSearch",
	})

	wrapper.captureError("run-1", errors.New("tool failed"))
	drainClient(t, wrapper)

	events := sink.getEvents()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Message != "tool failed" {
		t.Errorf("Message = %q, want %q", event.Message, "tool failed")
	}
	if event.Transaction != "tool:WebSearch" {
		t.Errorf("Transaction = %q, want tool:WebSearch", event.Transaction)
	}
	if event.Tags["agent"] != "researcher" {
		t.Errorf("agent tag = %q, want researcher", event.Tags["agent"])
	}
	if len(event.Breadcrumbs) != 1 || event.Breadcrumbs[0].Message != "tool started: WebSearch" {
		t.Errorf("Breadcrumbs = %+v", event.Breadcrumbs)
	}
}

func TestWrappedRunner_CaptureError_NoScope(t *testing.T) {
	wrapper, sink := newTestWrapper(t)

	wrapper.captureError("unknown-run", errors.New("bare failure"))
	drainClient(t, wrapper)

	events := sink.getEvents()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Message != "bare failure" {
		t.Errorf("Message = %q", events[0].Message)
	}
}

func TestWrappedRunner_CapturePanic_RePanics(t *testing.T) {
	wrapper, sink := newTestWrapper(t)

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("Expected panic to be re-raised")
			}
			if r != "boom" {
				t.Errorf("Recovered = %v, want boom", r)
			}
		}()
		defer wrapper.capturePanic("run-1")
		panic("boom")
	}()

	drainClient(t, wrapper)

	events := sink.getEvents()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Level != faultline.LevelFatal {
		t.Errorf("Level = %q, want %q", event.Level, faultline.LevelFatal)
	}
	if event.Tags["error_kind"] != "panic" {
		t.Errorf("error_kind = %q, want panic", event.Tags["error_kind"])
	}
}

func TestWrappedRunner_CapturePanic_NoPanicIsNoOp(t *testing.T) {
	wrapper, sink := newTestWrapper(t)

	func() {
		defer wrapper.capturePanic("run-1")
	}()

	drainClient(t, wrapper)
	if got := len(sink.getEvents()); got != 0 {
		t.Errorf("Expected no events, got %d", got)
	}
}

func TestWrappedRunner_DisabledClient_SilentlyDrops(t *testing.T) {
	wrapper := NewWrappedRunner(nil, faultline.DisabledClient(faultline.ClientOptions{}), nil, nil)

	// Must not panic or block even though the client has no transport.
	wrapper.captureError("run-1", errors.New("ignored"))
}

func TestWrappedRunner_WrapRunConfig_PreservesUserHooks(t *testing.T) {
	wrapper, _ := newTestWrapper(t)

	inner := &mockRunHooks{}
	cfg := wrapper.wrapRunConfig(nil)
	if cfg == nil || cfg.Hooks == nil {
		t.Fatal("wrapRunConfig should install hooks")
	}

	adapter, ok := cfg.Hooks.(*HookAdapter)
	if !ok {
		t.Fatalf("Hooks = %T, want *HookAdapter", cfg.Hooks)
	}
	if adapter.inner != nil {
		t.Error("nil config should produce an adapter without inner hooks")
	}

	cfg2 := wrapper.wrapRunConfig(&agents.RunConfig{Hooks: inner})
	adapter2, ok := cfg2.Hooks.(*HookAdapter)
	if !ok {
		t.Fatalf("Hooks = %T, want *HookAdapter", cfg2.Hooks)
	}
	if adapter2.inner != inner {
		t.Error("user hooks should be preserved as inner hooks")
	}
}

func TestWrappedRunner_Instrument_DefaultsAndOptions(t *testing.T) {
	client := faultline.DisabledClient(faultline.ClientOptions{})
	store := NewScopeStore()

	wrapper := Instrument(nil, client, WithScopeStore(store))
	if wrapper.scopes != store {
		t.Error("WithScopeStore should override the default store")
	}
	if wrapper.Inner() != nil {
		t.Error("Inner should return the wrapped runner")
	}

	wrapper = Instrument(nil, client)
	if wrapper.scopes == nil {
		t.Error("Instrument should default to a fresh scope store")
	}
}
