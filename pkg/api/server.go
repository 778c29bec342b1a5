package api

import (
	"net/http"

	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/cleancare/ccadmin/pkg/observability"
	"github.com/cleancare/ccadmin/pkg/permissions"
	"github.com/cleancare/ccadmin/pkg/scope"
	"github.com/cleancare/ccadmin/pkg/users"
	"github.com/cleancare/ccadmin/pkg/zones"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Deps holds the collaborators the server routes to. Nil handler groups are
// not mounted.
type Deps struct {
	Resolver      *scope.Resolver
	Authenticator *auth.Authenticator
	Users         *users.Handlers
	Permissions   *permissions.Handlers
	Zones         *zones.Handlers
	Cache         *cache.Tiered
	Logger        logrus.FieldLogger
	Metrics       *observability.Metrics
}

// Server represents the admin API server
type Server struct {
	router  *mux.Router
	admin   *mux.Router
	handler http.Handler
	deps    Deps
	log     logrus.FieldLogger
}

// NewServer creates the API server and registers every route
func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = observability.NopLogger()
	}
	if deps.Authenticator == nil {
		deps.Authenticator = auth.NewAuthenticator(log)
	}

	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		log:    log,
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.handler = otelhttp.NewHandler(s.router, "ccadmin.http")
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		httputil.RecoveryMiddleware(s.log),
		audit.RequestInfoMiddleware,
	)
	if s.deps.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.deps.Metrics))
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteAPIError(w, httputil.NewAPIError(http.StatusMethodNotAllowed, httputil.CodeValidationFailed,
			"Method not allowed"))
	})
}

// setupRoutes configures all the admin routes
func (s *Server) setupRoutes() {
	s.admin = s.router.PathPrefix("/api/admin").Subrouter()
	s.admin.Use(s.deps.Authenticator.Handler)

	rv := s.deps.Resolver
	if rv == nil {
		return
	}

	// User routes
	if h := s.deps.Users; h != nil {
		scoped := httputil.Chain(
			rv.RequireAnyAdmin(),
			rv.FilterByAssignedZones(),
			rv.ValidateCityCorporationAccess(),
			rv.ValidateZoneAccess(),
			rv.ValidateWardAccess(),
			rv.RequirePermission(permissions.FeatureViewUsers),
		)
		s.admin.Handle("/users", scoped(http.HandlerFunc(h.ListUsers))).Methods(http.MethodGet)
		s.admin.Handle("/users/stats", scoped(http.HandlerFunc(h.GetStats))).Methods(http.MethodGet)
		s.admin.Handle("/users/{userId}/status", httputil.Chain(
			rv.RequireAnyAdmin(),
			rv.BlockIfViewOnly(),
			rv.FilterByAssignedZones(),
			rv.RequirePermission(permissions.FeatureEditUsers),
		)(http.HandlerFunc(h.UpdateStatus))).Methods(http.MethodPatch)
	}

	// Permission routes
	if h := s.deps.Permissions; h != nil {
		s.admin.Handle("/users/{userId}/permissions", httputil.Chain(
			rv.RequireMasterOrSuperAdmin(),
			rv.RequireAdminManagementAccess(),
		)(http.HandlerFunc(h.GetPermissions))).Methods(http.MethodGet)
		s.admin.Handle("/users/{userId}/permissions", httputil.Chain(
			rv.RequireMasterOrSuperAdmin(),
			rv.BlockIfViewOnly(),
			rv.RequireAdminManagementAccess(),
			rv.ValidatePermissionUpdate(),
		)(http.HandlerFunc(h.UpdatePermissions))).Methods(http.MethodPut)
		s.admin.Handle("/users/{userId}/permissions/initialize", httputil.Chain(
			rv.RequireMasterAdmin(),
		)(http.HandlerFunc(h.InitializePermissions))).Methods(http.MethodPost)
	}

	// Zone assignment routes
	if h := s.deps.Zones; h != nil {
		manage := httputil.Chain(
			rv.RequireSuperAdminManagementAccess(),
			rv.BlockIfViewOnly(),
		)
		s.admin.Handle("/super-admins/{userId}/zones", rv.RequireMasterAdmin()(http.HandlerFunc(h.GetAssignedZones))).
			Methods(http.MethodGet)
		s.admin.Handle("/super-admins/{userId}/zones", manage(http.HandlerFunc(h.AssignZones))).Methods(http.MethodPost)
		s.admin.Handle("/super-admins/{userId}/zones", manage(http.HandlerFunc(h.UpdateZones))).Methods(http.MethodPut)
		s.admin.Handle("/super-admins/{userId}/zones/{zoneId}", manage(http.HandlerFunc(h.RemoveZone))).
			Methods(http.MethodDelete)
		s.admin.Handle("/zones/{zoneId}/super-admins", httputil.Chain(
			rv.RequireMasterOrSuperAdmin(),
			rv.FilterByAssignedZones(),
			rv.ValidateZoneAccess(),
		)(http.HandlerFunc(h.GetSuperAdmins))).Methods(http.MethodGet)
	}

	// Cache routes
	if s.deps.Cache != nil {
		s.admin.Handle("/cache/stats", rv.RequireMasterAdmin()(http.HandlerFunc(s.cacheStats))).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes mounts registrar's routes under /api/admin, behind the
// authenticator.
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.admin)
}
