// Package scope resolves what part of the City Corporation, Zone and Ward
// hierarchy a request may touch.
//
// A Resolver hands out HTTP middleware. The first scope middleware in a chain
// builds a Resolved value from the authenticated identity and stores it in the
// request context; later middleware in the same chain reuse it, so the
// assigned zones and the permission document are loaded at most once per
// request. Each check either advances the request's State or denies it with
// one of the httputil error codes, after which the chain stops.
//
// BuildFilter turns a Resolved scope into a Predicate that storage code merges
// into its own WHERE clause.
package scope
