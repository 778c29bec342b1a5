// Package api wires the admin HTTP surface.
//
// # Overview
//
// Server owns a gorilla/mux router. Every route under /api/admin sits behind
// the gateway Authenticator and then a route-specific chain of scope
// middleware, so a handler only runs once the caller's role, zone and
// permission checks have passed.
//
// # Middleware order
//
// Global, outermost first:
//
//	otelhttp → request id → logging → recovery → audit request info → metrics
//
// Per route under /api/admin:
//
//	auth.Authenticator → scope chain → handler
//
// # Routes
//
//	GET    /api/admin/users                            list users in scope
//	GET    /api/admin/users/stats                      counts by role in scope
//	PATCH  /api/admin/users/{userId}/status            change a user's status
//	GET    /api/admin/users/{userId}/permissions       read a permission document
//	PUT    /api/admin/users/{userId}/permissions       replace a permission document
//	POST   /api/admin/users/{userId}/permissions/initialize
//	GET    /api/admin/super-admins/{userId}/zones      zones assigned to a Super Admin
//	POST   /api/admin/super-admins/{userId}/zones      assign zones
//	PUT    /api/admin/super-admins/{userId}/zones      replace zones
//	DELETE /api/admin/super-admins/{userId}/zones/{zoneId}
//	GET    /api/admin/zones/{zoneId}/super-admins      Super Admins of a zone
//	GET    /api/admin/cache/stats                      cache tier status
//
// # Usage
//
//	server := api.NewServer(api.Deps{
//		Resolver:    resolver,
//		Users:       users.NewHandlers(userService, log),
//		Permissions: permissions.NewHandlers(permService, log),
//		Zones:       zones.NewHandlers(registry, log),
//		Cache:       tiered,
//		Logger:      log,
//		Metrics:     metrics,
//	})
//	http.ListenAndServe(":8080", server)
//
// Extra route groups can be mounted with RegisterRoutes.
package api
