// scope_store.go provides thread-safe storage for per-run scope data that
// correlates hook activity with errors captured at the runner boundary.

package agentssdk

import (
	"context"
	"sync"

	"github.com/strongdm/ai-faultline/pkg/faultline"
)

// maxRunBreadcrumbs caps the breadcrumb trail recorded per run. The oldest
// entries are evicted once the cap is reached.
const maxRunBreadcrumbs = 100

type runIDContextKey struct{}

// WithRunID attaches the identifier of the current instrumented run to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey{}, runID)
}

// RunIDFromContext extracts the run identifier placed by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	runID, ok := ctx.Value(runIDContextKey{}).(string)
	return runID, ok
}

// ScopeStore provides thread-safe storage for per-run scopes. Hooks append
// breadcrumbs and set fields while a run progresses; the wrapper reads the
// scope back when an error or panic surfaces. Implementations must be safe
// for concurrent use.
type ScopeStore interface {
	// Update applies fn to the scope for runID, creating it if needed.
	// IMPORTANT: fn is called while holding the lock. fn MUST be fast and
	// MUST NOT call other ScopeStore methods (deadlock risk).
	Update(runID string, fn func(scope *faultline.Scope))

	// AddBreadcrumb appends a breadcrumb to the scope for runID, evicting
	// the oldest entry when the per-run cap is reached.
	AddBreadcrumb(runID string, crumb faultline.Breadcrumb)

	// Get returns a deep copy of the scope for runID.
	// Returns nil and false if not found.
	Get(runID string) (*faultline.Scope, bool)

	// Delete removes the scope for runID.
	Delete(runID string)
}

// inMemoryScopeStore is the default ScopeStore implementation.
type inMemoryScopeStore struct {
	mu   sync.RWMutex
	data map[string]*faultline.Scope
}

// NewScopeStore creates a new in-memory scope store.
func NewScopeStore() ScopeStore {
	return &inMemoryScopeStore{
		data: make(map[string]*faultline.Scope),
	}
}

// Update applies fn to the scope for runID, creating it if needed.
func (s *inMemoryScopeStore) Update(runID string, fn func(scope *faultline.Scope)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.data[runID]
	if !ok {
		scope = &faultline.Scope{}
		s.data[runID] = scope
	}
	fn(scope) // Called under lock - must be fast!
}

// AddBreadcrumb appends a breadcrumb, evicting the oldest past the cap.
func (s *inMemoryScopeStore) AddBreadcrumb(runID string, crumb faultline.Breadcrumb) {
	s.Update(runID, func(scope *faultline.Scope) {
		scope.Breadcrumbs = append(scope.Breadcrumbs, crumb)
		if len(scope.Breadcrumbs) > maxRunBreadcrumbs {
			scope.Breadcrumbs = scope.Breadcrumbs[len(scope.Breadcrumbs)-maxRunBreadcrumbs:]
		}
	})
}

// Get returns a deep copy of the scope for runID.
func (s *inMemoryScopeStore) Get(runID string) (*faultline.Scope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, ok := s.data[runID]
	if !ok {
		return nil, false
	}
	// Return a copy to prevent external modification
	return scope.Clone(), true
}

// Delete removes the scope for runID.
func (s *inMemoryScopeStore) Delete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
}
