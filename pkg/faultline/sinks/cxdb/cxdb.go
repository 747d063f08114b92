// Package cxdb provides a sink that persists events to cxdb as SystemMessage items.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"
	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// ContextIDTag is the event tag consulted to link an event to an existing
// cxdb context. Events without it land in a fresh orphan context.
const ContextIDTag = "cxdb_context_id"

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// CXDBSinkOption configures the CXDB sink.
type CXDBSinkOption func(*cxdbSinkConfig)

type cxdbSinkConfig struct {
	orphanLabels []string
	clientTag    string
}

// WithOrphanLabels sets labels for orphan crash contexts.
func WithOrphanLabels(labels []string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.orphanLabels = labels
	}
}

// WithClientTag sets the client tag for orphan contexts.
func WithClientTag(tag string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.clientTag = tag
	}
}

// cxdbSink writes events to cxdb as SystemMessage items.
type cxdbSink struct {
	client       CXDBClient
	orphanLabels []string
	clientTag    string
}

// NewCXDBSink creates a sink that writes to cxdb.
func NewCXDBSink(client CXDBClient, opts ...CXDBSinkOption) faultline.Sink {
	cfg := &cxdbSinkConfig{
		orphanLabels: []string{"crash", "faultline"},
		clientTag:    "faultline",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cxdbSink{
		client:       client,
		orphanLabels: cfg.orphanLabels,
		clientTag:    cfg.clientTag,
	}
}

// Write persists an event to cxdb.
func (s *cxdbSink) Write(ctx context.Context, event *faultline.Event) error {
	contextID, linked := linkedContextID(event)
	isOrphan := !linked

	if isOrphan {
		// Create orphan context
		head, err := s.client.CreateContext(ctx, 0)
		if err != nil {
			return fmt.Errorf("create orphan context: %w", err)
		}
		contextID = head.ContextID
	}

	// Build the canonical ConversationItem payload.
	item := s.buildConversationItem(event, isOrphan)

	// Encode to msgpack using the official cxdb encoder.
	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	// Append to context using canonical type identifiers.
	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: event.EventID,
	}

	_, err = s.client.AppendTurn(ctx, req)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// linkedContextID extracts the target context from the event tags.
func linkedContextID(event *faultline.Event) (uint64, bool) {
	raw, ok := event.Tags[ContextIDTag]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// buildConversationItem creates a canonical ConversationItem from an Event.
func (s *cxdbSink) buildConversationItem(event *faultline.Event, isOrphan bool) *cxdtypes.ConversationItem {
	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: event.Timestamp.UnixMilli(),
		ID:        event.EventID,
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   buildTitle(event),
			Content: buildEventDetails(event),
		},
	}

	// Add context metadata for orphan contexts. cxdb expects this on the first turn.
	if isOrphan {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    s.orphanLabels,
			ClientTag: s.clientTag,
		}
	}

	return item
}

// buildTitle derives a short title: "exception_type: truncated_message".
func buildTitle(event *faultline.Event) string {
	title := string(event.Level)
	message := event.Message
	if len(event.Exceptions) > 0 {
		exc := event.Exceptions[0]
		if exc.Type != "" {
			title = exc.Type
		}
		if message == "" {
			message = exc.Value
		}
	}

	if message != "" {
		const maxMsgLen = 80
		if len(message) > maxMsgLen {
			message = message[:maxMsgLen] + "..."
		}
		title = title + ": " + message
	}

	// Truncate title to 100 chars
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	return title
}

// buildEventDetails encodes the salient event fields as JSON for
// SystemMessage.Content.
func buildEventDetails(event *faultline.Event) string {
	details := map[string]any{
		"event_id": event.EventID,
		"level":    string(event.Level),
		"message":  event.Message,
		"platform": event.Platform,
	}

	if event.Release != "" {
		details["release"] = event.Release
	}
	if event.Environment != "" {
		details["environment"] = event.Environment
	}
	if event.ServerName != "" {
		details["server_name"] = event.ServerName
	}
	if event.Transaction != "" {
		details["transaction"] = event.Transaction
	}
	if len(event.Fingerprint) > 0 {
		details["fingerprint"] = event.Fingerprint
	}
	if len(event.Exceptions) > 0 {
		excs := make([]map[string]any, 0, len(event.Exceptions))
		for _, exc := range event.Exceptions {
			entry := map[string]any{
				"type":  exc.Type,
				"value": exc.Value,
			}
			if exc.Stacktrace != nil {
				entry["frames"] = len(exc.Stacktrace.Frames)
			}
			excs = append(excs, entry)
		}
		details["exceptions"] = excs
	}
	if len(event.Tags) > 0 {
		details["tags"] = event.Tags
	}
	if len(event.Extra) > 0 {
		details["extra"] = event.Extra
	}
	if len(event.Breadcrumbs) > 0 {
		details["breadcrumb_count"] = len(event.Breadcrumbs)
	}

	jsonBytes, err := json.Marshal(details)
	if err != nil {
		// Fallback to simple error message
		return fmt.Sprintf(`{"error":"failed to encode details: %s"}`, err)
	}
	return string(jsonBytes)
}

// Flush is a no-op for the cxdb sink (writes are synchronous).
func (s *cxdbSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the cxdb sink.
func (s *cxdbSink) Close() error {
	return nil
}
