// http.go implements the sink that posts finalized events to the DSN's
// ingest endpoint.

package faultline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// httpSink posts JSON-encoded events to a DSN store URL. Writes are
// synchronous; the queue transport in front of it provides the async path.
type httpSink struct {
	client     *http.Client
	url        string
	authHeader string
	userAgent  string
	logger     *slog.Logger
}

func newHTTPSink(dsn *DSN, clientAgent string, logger *slog.Logger) *httpSink {
	return &httpSink{
		client:     &http.Client{Timeout: 30 * time.Second},
		url:        dsn.StoreAPIURL(),
		authHeader: dsn.AuthHeader(clientAgent),
		userAgent:  clientAgent,
		logger:     logger,
	}
}

// Write posts a single event and checks for an accepting status code.
func (s *httpSink) Write(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("X-Faultline-Auth", s.authHeader)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ingest rejected event: status %d", resp.StatusCode)
	}
	return nil
}

// Flush is a no-op; writes are synchronous.
func (s *httpSink) Flush(ctx context.Context) error {
	return nil
}

// Close releases idle connections.
func (s *httpSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
