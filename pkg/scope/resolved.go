package scope

import (
	"context"
	"encoding/json"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/contextkeys"
	"github.com/cleancare/ccadmin/pkg/permissions"
)

// State is the position of a request in the authorization pipeline
type State int

const (
	StateUnscoped State = iota
	StateRoleChecked
	StateZonePopulated
	StateAuthorized
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnscoped:
		return "UNSCOPED"
	case StateRoleChecked:
		return "ROLE_CHECKED"
	case StateZonePopulated:
		return "ZONE_POPULATED"
	case StateAuthorized:
		return "AUTHORIZED"
	case StateDenied:
		return "DENIED"
	}
	return "UNKNOWN"
}

// Resolved is the scope of a single request. It is created by the first scope
// middleware and must never outlive the request.
type Resolved struct {
	Identity *auth.Identity
	State    State

	// AssignedZoneIDs is set by FilterByAssignedZones. It stays nil for
	// Master Admins, who are unrestricted.
	AssignedZoneIDs []int64

	zonesLoaded bool
	document    *permissions.Document

	bodyRead     bool
	bodyTooLarge bool
	body         map[string]json.RawMessage
}

func newResolved(identity *auth.Identity) *Resolved {
	return &Resolved{Identity: identity, State: StateUnscoped}
}

// advance moves the request forward. Denied requests never move again.
func (r *Resolved) advance(to State) {
	if r.State == StateDenied || to <= r.State {
		return
	}
	r.State = to
}

// Filter is shorthand for BuildFilter(r)
func (r *Resolved) Filter() Predicate {
	return BuildFilter(r)
}

// FromContext returns the request's resolved scope, if a scope middleware ran
func FromContext(ctx context.Context) (*Resolved, bool) {
	r, ok := ctx.Value(contextkeys.ScopeKey).(*Resolved)
	return r, ok && r != nil
}

// ForRequest returns the resolved scope stored in ctx or, when no scope
// middleware ran, a fresh one built from the authenticated identity.
func ForRequest(ctx context.Context) (*Resolved, bool) {
	if r, ok := FromContext(ctx); ok {
		return r, true
	}
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, false
	}
	return newResolved(identity), true
}
