// scope.go defines the ambient context snapshot merged into events at capture
// time. Scope instances are owned by the surrounding scope-management layer;
// the client only reads them.

package faultline

// Scope is a read-only snapshot of ambient context captured independently of
// any single event: breadcrumbs, the active user, tags, extra values, context
// blocks, the current transaction, and an optional fingerprint override.
//
// The client never mutates a scope. Its data is merged into an event during
// capture: breadcrumbs are appended, user and transaction fill only absent
// event fields, tags/extra/contexts merge per key with scope entries winning
// on collision, and the fingerprint override applies only when the event
// still carries the default grouping sentinel.
type Scope struct {
	Breadcrumbs []Breadcrumb
	User        *User
	Extra       map[string]any
	Tags        map[string]string
	Contexts    map[string]Context
	Transaction string

	// Fingerprint is the grouping override. nil means no override; an empty
	// non-nil slice is a deliberate override with no entries.
	Fingerprint []string
}

// Clone returns a deep-enough copy of the scope: collections are copied,
// values inside them are shared.
func (s *Scope) Clone() *Scope {
	if s == nil {
		return nil
	}
	clone := &Scope{
		Transaction: s.Transaction,
	}
	if s.User != nil {
		user := *s.User
		clone.User = &user
	}
	if len(s.Breadcrumbs) > 0 {
		clone.Breadcrumbs = append([]Breadcrumb(nil), s.Breadcrumbs...)
	}
	if s.Fingerprint != nil {
		clone.Fingerprint = append([]string{}, s.Fingerprint...)
	}
	if len(s.Extra) > 0 {
		clone.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			clone.Extra[k] = v
		}
	}
	if len(s.Tags) > 0 {
		clone.Tags = make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			clone.Tags[k] = v
		}
	}
	if len(s.Contexts) > 0 {
		clone.Contexts = make(map[string]Context, len(s.Contexts))
		for k, v := range s.Contexts {
			clone.Contexts[k] = v
		}
	}
	return clone
}
