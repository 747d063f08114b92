// Package faultline is a lightweight crash and diagnostics reporting client.
//
// faultline prepares diagnostic events for delivery to a collection service:
// it merges ambient scope data (breadcrumbs, user, tags) into each event,
// fills configured defaults, classifies stack frames for grouping, and hands
// the finalized event to a delivery transport with a bounded async queue.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - Event: The canonical diagnostic record with exceptions, breadcrumbs, and contexts
//   - Scope: Ambient contextual data merged into events at capture time
//   - Client: Applies scope merging, defaulting, and frame classification before delivery
//   - Transport: Destination queue for finalized events (HTTP ingest, cxdb, spool, stderr)
//   - Scrubber: Redacts sensitive data with fail-closed behavior
//
// # Quick Start
//
// With an ingest DSN:
//
//	guard, err := faultline.Init(faultline.ClientOptions{
//	    DSN:     "https://key@faults.example.com/42",
//	    Release: "api@1.4.0",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Close()
//
//	guard.Client().CaptureError(err, nil)
//
// Without a DSN the client comes up disabled: every capture is a silent no-op
// returning uuid.Nil, so calling code never needs to branch on whether
// reporting is active.
//
// # Design Principles
//
//   - Capture never blocks and never fails: enrichment is synchronous, delivery is queued
//   - Event fields set by the caller are never overwritten by scope or option defaults
//   - Fail-closed scrubbing: on any error, fields are fully redacted (never ship raw data)
//   - Zero-dependency core beyond uuid: external dependencies only in sink/adapter packages
package faultline
