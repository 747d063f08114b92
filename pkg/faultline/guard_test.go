package faultline

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingSink tracks flush-relevant delivery for guard tests.
type countingSink struct {
	mu     sync.Mutex
	events int
	closed bool
}

func (s *countingSink) Write(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events++
	return nil
}

func (s *countingSink) Flush(ctx context.Context) error { return nil }

func (s *countingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv(dsnEnvVar, "")

	guard, err := Init(ClientOptions{})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer guard.Close()

	if guard.Enabled() {
		t.Error("Guard should wrap a disabled client")
	}
	if guard.Client() == nil {
		t.Fatal("Guard must still hand out the client")
	}
}

func TestInit_MalformedDSNIsError(t *testing.T) {
	if _, err := Init(ClientOptions{DSN: "://broken"}); err == nil {
		t.Error("Init should surface DSN parse errors")
	}
}

func TestInitGuard_CloseDrainsAndReleases(t *testing.T) {
	sink := &countingSink{}
	guard, err := Init(ClientOptions{Transport: NewSinkTransport(nil, sink)})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	guard.Client().CaptureEvent(NewEvent(), nil)
	guard.Client().CaptureEvent(NewEvent(), nil)

	guard.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.events != 2 {
		t.Errorf("Close drained %d events, want 2", sink.events)
	}
	if !sink.closed {
		t.Error("Close did not release the transport")
	}
}

func TestInitGuard_CloseIsIdempotent(t *testing.T) {
	sink := &countingSink{}
	guard, err := Init(ClientOptions{Transport: NewSinkTransport(nil, sink)})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		guard.Close()
	}()
	guard.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Concurrent Close did not finish")
	}
}
