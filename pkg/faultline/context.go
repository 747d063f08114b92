// context.go provides utilities for propagating a client and scope through
// Go context.Context.

package faultline

import "context"

// Context key types (unexported to avoid collisions)
type clientKey struct{}
type scopeKey struct{}

// WithClient returns a context with the client attached. Helpers like
// Recover pick it up so library code does not need an explicit handle.
func WithClient(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext extracts the client from context.
// Returns nil and false if none is attached.
func ClientFromContext(ctx context.Context) (*Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*Client)
	return client, ok && client != nil
}

// WithScope returns a context with the scope snapshot attached. Events
// captured through context-aware helpers are merged with it.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext extracts the scope from context.
// Returns nil and false if none is attached.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*Scope)
	return scope, ok && scope != nil
}
