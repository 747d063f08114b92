// hooks.go implements RunHooks for recording run context as breadcrumbs.
// This adapter provides ENRICHMENT only - error detection is done by WrappedRunner.

package agentssdk

import (
	"context"
	"time"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// HookAdapter implements agents.RunHooks to record operation breadcrumbs.
// It delegates to an inner RunHooks and writes run context into a ScopeStore.
type HookAdapter struct {
	store ScopeStore
	inner agents.RunHooks
}

// NewHookAdapter wraps an existing RunHooks and records operation breadcrumbs.
// This adapter provides ENRICHMENT only - error detection is done by WrappedRunner.
//
// The store correlates hook data with errors captured at the runner boundary.
// The inner hooks (if non-nil) are called for all hook methods; only their
// errors are returned.
func NewHookAdapter(store ScopeStore, inner agents.RunHooks) agents.RunHooks {
	return &HookAdapter{
		store: store,
		inner: inner,
	}
}

// OnAgentStart tags the scope with the agent name.
func (h *HookAdapter) OnAgentStart(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent) error {
	if runID, ok := RunIDFromContext(ctx); ok && agent != nil {
		h.store.Update(runID, func(scope *faultline.Scope) {
			if scope.Tags == nil {
				scope.Tags = make(map[string]string)
			}
			scope.Tags["agent"] = agent.Name()
		})
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "agent",
			Message:   "agent started: " + agent.Name(),
			Level:     faultline.LevelInfo,
		})
	}

	if h.inner != nil {
		return h.inner.OnAgentStart(ctx, runCtx, agent)
	}
	return nil
}

// OnAgentEnd records the run finishing and delegates to inner hooks.
func (h *HookAdapter) OnAgentEnd(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent, result agents.RunResult) error {
	if runID, ok := RunIDFromContext(ctx); ok && agent != nil {
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "agent",
			Message:   "agent finished: " + agent.Name(),
			Level:     faultline.LevelInfo,
		})
	}

	if h.inner != nil {
		return h.inner.OnAgentEnd(ctx, runCtx, agent, result)
	}
	return nil
}

// OnHandoff records the agent transition and delegates to inner hooks.
func (h *HookAdapter) OnHandoff(ctx context.Context, runCtx *agents.RunContext, from *agents.Agent, to *agents.Agent) error {
	if runID, ok := RunIDFromContext(ctx); ok && from != nil && to != nil {
		h.store.Update(runID, func(scope *faultline.Scope) {
			if scope.Tags == nil {
				scope.Tags = make(map[string]string)
			}
			scope.Tags["agent"] = to.Name()
		})
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "agent.handoff",
			Message:   from.Name() + " -> " + to.Name(),
			Level:     faultline.LevelInfo,
		})
	}

	if h.inner != nil {
		return h.inner.OnHandoff(ctx, runCtx, from, to)
	}
	return nil
}

// OnToolStart records the tool invocation and marks it as the transaction in
// progress.
func (h *HookAdapter) OnToolStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, call llmsdk.ToolCall) error {
	if runID, ok := RunIDFromContext(ctx); ok {
		h.store.Update(runID, func(scope *faultline.Scope) {
			scope.Transaction = "tool:" + tool.Name
		})
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "tool",
			Message:   "tool started: " + tool.Name,
			Level:     faultline.LevelInfo,
			Data: map[string]any{
				"tool_call_id": call.ID,
			},
		})
	}

	if h.inner != nil {
		return h.inner.OnToolStart(ctx, runCtx, agent, tool, call)
	}
	return nil
}

// OnToolEnd records completion without storing tool output.
// SECURITY: Output text is NOT recorded to avoid leaking tool results.
func (h *HookAdapter) OnToolEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, output string) error {
	if runID, ok := RunIDFromContext(ctx); ok {
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "tool",
			Message:   "tool finished: " + tool.Name,
			Level:     faultline.LevelInfo,
			Data: map[string]any{
				"output_length": len(output),
			},
		})
	}

	if h.inner != nil {
		return h.inner.OnToolEnd(ctx, runCtx, agent, tool, output)
	}
	return nil
}

// OnLLMStart records request metadata without storing message text.
// SECURITY: Prompt text is NOT recorded to avoid leaking secrets.
func (h *HookAdapter) OnLLMStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, req llmsdk.Request) error {
	if runID, ok := RunIDFromContext(ctx); ok {
		h.store.Update(runID, func(scope *faultline.Scope) {
			scope.Transaction = "llm:" + req.Model
		})
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "llm",
			Message:   "llm request: " + req.Model,
			Level:     faultline.LevelInfo,
			Data: map[string]any{
				"provider":      string(req.Provider),
				"message_count": len(req.Messages),
				"tool_count":    len(req.Tools),
			},
		})
	}

	if h.inner != nil {
		return h.inner.OnLLMStart(ctx, runCtx, agent, req)
	}
	return nil
}

// OnLLMEnd records response metadata and token usage.
func (h *HookAdapter) OnLLMEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, resp llmsdk.Response) error {
	if runID, ok := RunIDFromContext(ctx); ok {
		h.store.AddBreadcrumb(runID, faultline.Breadcrumb{
			Timestamp: time.Now().UTC(),
			Category:  "llm",
			Message:   "llm response: " + resp.ID,
			Level:     faultline.LevelInfo,
			Data: map[string]any{
				"finish_reason":     string(resp.FinishReason),
				"prompt_tokens":     resp.Usage.PromptTokens,
				"completion_tokens": resp.Usage.CompletionTokens,
				"tool_call_count":   len(resp.ToolCalls),
			},
		})
	}

	if h.inner != nil {
		return h.inner.OnLLMEnd(ctx, runCtx, agent, resp)
	}
	return nil
}
