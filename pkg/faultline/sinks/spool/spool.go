// Package spool provides a sink that persists events to local disk for later
// replay. It is the offline fallback: when the ingest endpoint is unreachable,
// events spool to a directory and a later Replay forwards them upstream.
package spool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/strongdm/ai-faultline/pkg/faultline"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// Current schema version - increment when the spool record format changes.
const spoolSchemaVersion uint16 = 1

// spoolFileExt is the extension for spooled event files.
const spoolFileExt = ".mp"

// spoolRecord is the on-disk envelope around a spooled event.
type spoolRecord struct {
	// Schema version for safe invalidation when the format changes
	Schema    uint16
	SpooledAt time.Time
	Event     *faultline.Event
}

// spoolSink writes each event to its own file in a spool directory.
// Thread-safe for concurrent writes.
type spoolSink struct {
	mu  sync.Mutex
	dir string
	seq uint64
}

// NewSpoolSink creates a sink that spools events under dir, creating the
// directory if needed.
func NewSpoolSink(dir string) (faultline.Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &spoolSink{dir: dir}, nil
}

// Write persists the event as a single msgpack file. The file is written to a
// temp name first and renamed into place so readers never observe a partial
// record.
func (s *spoolSink) Write(ctx context.Context, event *faultline.Event) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	record := &spoolRecord{
		Schema:    spoolSchemaVersion,
		SpooledAt: time.Now().UTC(),
		Event:     event,
	}

	name := fmt.Sprintf("%d-%06d%s", record.SpooledAt.UnixNano(), seq, spoolFileExt)
	final := filepath.Join(s.dir, name)

	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create spool file: %w", err)
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(record); err != nil {
		f.Close()
		return fmt.Errorf("encode spool record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close spool file: %w", err)
	}
	// Atomic replace
	if err := os.Rename(f.Name(), final); err != nil {
		return fmt.Errorf("publish spool file: %w", err)
	}
	return nil
}

// Flush is a no-op: every Write lands on disk before returning.
func (s *spoolSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the spool sink.
func (s *spoolSink) Close() error {
	return nil
}

// readRecord loads and validates one spooled record.
func readRecord(path string) (*spoolRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var record spoolRecord
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode spool record: %w", err)
	}
	if record.Schema != spoolSchemaVersion {
		return nil, fmt.Errorf("spool record schema %d, want %d", record.Schema, spoolSchemaVersion)
	}
	if record.Event == nil {
		return nil, fmt.Errorf("spool record has no event")
	}
	return &record, nil
}

// Replay forwards every spooled event under dir to sink, deleting files whose
// delivery succeeds. Files that fail to decode or deliver stay on disk for a
// later attempt. Up to parallelism deliveries run concurrently; values below 1
// are treated as 1. Replay returns the first delivery error, after all
// in-flight deliveries finish.
func Replay(ctx context.Context, dir string, sink faultline.Sink, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+spoolFileExt))
	if err != nil {
		return fmt.Errorf("scan spool dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, path := range paths {
		g.Go(func() error {
			record, err := readRecord(path)
			if err != nil {
				// Corrupt or foreign file. Leave it alone.
				return nil
			}
			if err := sink.Write(ctx, record.Event); err != nil {
				return fmt.Errorf("replay %s: %w", filepath.Base(path), err)
			}
			return os.Remove(path)
		})
	}

	return g.Wait()
}
