// guard.go provides Init and the shutdown guard that drains on release.

package faultline

import (
	"sync"
	"time"
)

// shutdownDrainTimeout bounds the best-effort drain performed when an
// InitGuard is closed.
const shutdownDrainTimeout = 2 * time.Second

// InitGuard wraps a shared client handle and drains it on release. Keep the
// guard alive for the lifetime of the process and close it on every exit
// path, typically via defer.
type InitGuard struct {
	client *Client
	once   sync.Once
}

// Init builds a client from options and wraps it in a shutdown guard.
//
//	guard, err := faultline.Init(faultline.ClientOptions{DSN: dsn})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Close()
func Init(options ClientOptions) (*InitGuard, error) {
	client, err := NewClient(options)
	if err != nil {
		return nil, err
	}
	return &InitGuard{client: client}, nil
}

// Client returns the guarded client.
func (g *InitGuard) Client() *Client {
	return g.client
}

// Enabled reports whether the guarded client has a delivery transport.
func (g *InitGuard) Enabled() bool {
	return g.client.Enabled()
}

// Close drains pending events with a bounded timeout and releases the
// transport. The drain is best-effort: the result is ignored, not retried,
// and not escalated. Close runs its teardown exactly once; later calls are
// no-ops.
func (g *InitGuard) Close() {
	g.once.Do(func() {
		g.client.Drain(shutdownDrainTimeout)
		_ = g.client.Close()
	})
}
