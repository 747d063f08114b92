// wrapper.go implements WrappedRunner that wraps agents.Runner to capture
// errors and panics. This is the PRIMARY capture mechanism - hooks provide
// enrichment only.

package agentssdk

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// WrappedRunner wraps an agents.Runner to capture errors and panics.
// It is the primary capture mechanism - hooks provide enrichment only.
type WrappedRunner struct {
	inner  *agents.Runner
	client *faultline.Client
	scopes ScopeStore
	logger *slog.Logger
}

// NewWrappedRunner creates a new WrappedRunner that wraps the given Runner.
// Errors and panics are reported through client. The scope store correlates
// hook data with captured failures; pass nil to use a fresh in-memory store.
// The logger is used for debug output (can be nil for no logging).
func NewWrappedRunner(inner *agents.Runner, client *faultline.Client, store ScopeStore, logger *slog.Logger) *WrappedRunner {
	if store == nil {
		store = NewScopeStore()
	}
	return &WrappedRunner{
		inner:  inner,
		client: client,
		scopes: store,
		logger: logger,
	}
}

// Run executes the agent with the given input and session, capturing any
// errors or panics.
func (w *WrappedRunner) Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error) {
	runID := uuid.New().String()
	ctx = WithRunID(ctx, runID)
	defer w.scopes.Delete(runID)

	// Wrap hooks to record breadcrumbs while preserving user-provided hooks.
	wrappedCfg := w.wrapRunConfig(cfg)

	// Capture panics
	defer w.capturePanic(runID)

	result, err := w.inner.Run(ctx, agent, input, session, wrappedCfg)
	if err != nil {
		w.captureError(runID, err)
	}
	return result, err
}

// RunOnce executes a single turn of the agent, capturing any errors or panics.
func (w *WrappedRunner) RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error) {
	runID := uuid.New().String()
	ctx = WithRunID(ctx, runID)
	defer w.scopes.Delete(runID)

	wrappedCfg := w.wrapRunConfig(cfg)

	defer w.capturePanic(runID)

	result, err := w.inner.RunOnce(ctx, agent, input, wrappedCfg)
	if err != nil {
		w.captureError(runID, err)
	}
	return result, err
}

// RunStream starts a streaming run, capturing any errors at the start.
// Note: Errors during streaming are not captured by this wrapper.
func (w *WrappedRunner) RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (*agents.StreamingRun, error) {
	runID := uuid.New().String()
	ctx = WithRunID(ctx, runID)
	// The scope is not deleted here because the stream may outlive this call.
	// It is dropped on start failure below.

	wrappedCfg := w.wrapRunConfig(cfg)

	defer w.capturePanic(runID)

	stream, err := w.inner.RunStream(ctx, agent, input, session, wrappedCfg)
	if err != nil {
		w.captureError(runID, err)
		w.scopes.Delete(runID)
	}
	return stream, err
}

// wrapRunConfig clones cfg and wraps hooks with HookAdapter for breadcrumb
// capture.
func (w *WrappedRunner) wrapRunConfig(cfg *agents.RunConfig) *agents.RunConfig {
	var cloned agents.RunConfig
	if cfg != nil {
		cloned = *cfg
	}
	cloned.Hooks = NewHookAdapter(w.scopes, cloned.Hooks)
	return &cloned
}

// captureError reports an error event merged with the run's scope.
func (w *WrappedRunner) captureError(runID string, err error) {
	scope, _ := w.scopes.Get(runID)
	w.safeCapture(buildErrorEvent(err), scope)
}

// capturePanic recovers from a panic, reports it, and re-panics.
func (w *WrappedRunner) capturePanic(runID string) {
	if r := recover(); r != nil {
		scope, _ := w.scopes.Get(runID)
		w.safeCapture(buildPanicEvent(r), scope)
		panic(r)
	}
}

// safeCapture reports an event, logging dropped captures rather than
// propagating them.
func (w *WrappedRunner) safeCapture(event *faultline.Event, scope *faultline.Scope) {
	eventID := w.client.CaptureEvent(event, scope)
	if eventID == uuid.Nil && w.logger != nil {
		w.logger.Debug("event not captured", "reason", "client disabled or event dropped")
	}
}

// Inner returns the underlying Runner for advanced usage.
func (w *WrappedRunner) Inner() *agents.Runner {
	return w.inner
}
