package spool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// collectSink records replayed events and can fail on demand.
type collectSink struct {
	mu       sync.Mutex
	events   []*faultline.Event
	writeErr error
}

func (s *collectSink) Write(ctx context.Context, event *faultline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *collectSink) Flush(ctx context.Context) error { return nil }
func (s *collectSink) Close() error                    { return nil }

func (s *collectSink) getEvents() []*faultline.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*faultline.Event, len(s.events))
	copy(result, s.events)
	return result
}

func spoolFiles(t *testing.T, dir string) []string {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*"+spoolFileExt))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	return paths
}

func TestSpoolSink_ImplementsSinkInterface(t *testing.T) {
	sink, err := NewSpoolSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}
	var _ faultline.Sink = sink
}

func TestSpoolSink_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "spool")

	if _, err := NewSpoolSink(dir); err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Spool directory was not created: %v", err)
	}
}

func TestSpoolSink_Write_OneFilePerEvent(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		event := faultline.NewEvent()
		event.Message = "spooled"
		if err := sink.Write(context.Background(), event); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	if got := len(spoolFiles(t, dir)); got != 3 {
		t.Errorf("Expected 3 spool files, got %d", got)
	}
}

func TestSpoolSink_Write_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}

	if err := sink.Write(context.Background(), faultline.NewEvent()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	leftover, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("Temp files left behind: %v", leftover)
	}
}

func TestReplay_ForwardsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}

	event := &faultline.Event{
		EventID:   "evt-spool-1",
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Level:     faultline.LevelError,
		Message:   "network down",
		Tags:      map[string]string{"region": "eu-central-1"},
	}
	if err := sink.Write(context.Background(), event); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	dest := &collectSink{}
	if err := Replay(context.Background(), dir, dest, 2); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	events := dest.getEvents()
	if len(events) != 1 {
		t.Fatalf("Expected 1 replayed event, got %d", len(events))
	}
	got := events[0]
	if got.EventID != "evt-spool-1" {
		t.Errorf("EventID = %q, want evt-spool-1", got.EventID)
	}
	if got.Message != "network down" {
		t.Errorf("Message = %q, want %q", got.Message, "network down")
	}
	if got.Tags["region"] != "eu-central-1" {
		t.Errorf("Tags = %v", got.Tags)
	}
	if !got.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, event.Timestamp)
	}

	if got := len(spoolFiles(t, dir)); got != 0 {
		t.Errorf("Delivered spool files should be removed, %d remain", got)
	}
}

func TestReplay_KeepsFilesOnDeliveryFailure(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}
	if err := sink.Write(context.Background(), faultline.NewEvent()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	dest := &collectSink{writeErr: errors.New("still unreachable")}
	if err := Replay(context.Background(), dir, dest, 1); err == nil {
		t.Fatal("Replay should report delivery failures")
	}

	if got := len(spoolFiles(t, dir)); got != 1 {
		t.Errorf("Undelivered spool files must stay on disk, %d remain", got)
	}
}

func TestReplay_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}
	if err := sink.Write(context.Background(), faultline.NewEvent()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	corrupt := filepath.Join(dir, "0-corrupt"+spoolFileExt)
	if err := os.WriteFile(corrupt, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dest := &collectSink{}
	if err := Replay(context.Background(), dir, dest, 4); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if got := len(dest.getEvents()); got != 1 {
		t.Errorf("Expected 1 replayed event, got %d", got)
	}
	if _, err := os.Stat(corrupt); err != nil {
		t.Errorf("Corrupt file should be left in place: %v", err)
	}
}

func TestReplay_EmptyDirectory(t *testing.T) {
	dest := &collectSink{}
	if err := Replay(context.Background(), t.TempDir(), dest, 1); err != nil {
		t.Errorf("Replay of empty directory failed: %v", err)
	}
	if got := len(dest.getEvents()); got != 0 {
		t.Errorf("Expected no events, got %d", got)
	}
}

func TestReplay_ManyEventsConcurrently(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSpoolSink(dir)
	if err != nil {
		t.Fatalf("NewSpoolSink failed: %v", err)
	}

	const n = 20
	for i := 0; i < n; i++ {
		event := faultline.NewEvent()
		event.Message = "bulk"
		if err := sink.Write(context.Background(), event); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	dest := &collectSink{}
	if err := Replay(context.Background(), dir, dest, 8); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if got := len(dest.getEvents()); got != n {
		t.Errorf("Expected %d replayed events, got %d", n, got)
	}
	if got := len(spoolFiles(t, dir)); got != 0 {
		t.Errorf("All spool files should be removed, %d remain", got)
	}
}
