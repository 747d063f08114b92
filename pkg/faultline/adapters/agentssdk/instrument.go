// instrument.go provides the Instrument function for convenient runner setup.
// This is the recommended entry point for integrating faultline with
// ai-agents-sdk.

package agentssdk

import (
	"log/slog"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// WrapOption configures a WrappedRunner.
type WrapOption func(*WrappedRunner)

// WithLogger sets the logger for the wrapper.
// The logger is used for debug output when capturing fails.
func WithLogger(logger *slog.Logger) WrapOption {
	return func(w *WrappedRunner) {
		w.logger = logger
	}
}

// WithScopeStore sets the scope store for the wrapper.
// The store is used to correlate hook data with errors captured at the
// runner boundary.
func WithScopeStore(store ScopeStore) WrapOption {
	return func(w *WrappedRunner) {
		w.scopes = store
	}
}

// Instrument wraps a Runner with error and panic capture.
// This is the recommended entry point for integrating faultline with
// ai-agents-sdk.
//
// Example:
//
//	guard, err := faultline.Init(faultline.ClientOptions{DSN: dsn})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Close()
//
//	runner := agents.NewRunner(client)
//	wrapped := agentssdk.Instrument(runner, guard.Client())
//	result, err := wrapped.Run(ctx, agent, input, session, nil)
func Instrument(baseRunner *agents.Runner, client *faultline.Client, opts ...WrapOption) *WrappedRunner {
	wrapper := &WrappedRunner{
		inner:  baseRunner,
		client: client,
		scopes: NewScopeStore(),
	}

	for _, opt := range opts {
		opt(wrapper)
	}

	return wrapper
}
