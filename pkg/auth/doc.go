// Package auth defines the authenticated caller of the admin API.
//
// Token verification happens upstream at the gateway. By the time a request
// reaches this service the gateway has already verified the bearer token and
// forwarded the caller's claims as trusted headers. Authenticator turns those
// headers into an *Identity on the request context:
//
//	router.Use(auth.NewAuthenticator(logger).Handler)
//	identity, ok := auth.FromContext(r.Context())
package auth
