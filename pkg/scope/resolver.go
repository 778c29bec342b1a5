package scope

import (
	"context"
	"errors"
	"net/http"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/contextkeys"
	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/cleancare/ccadmin/pkg/observability"
	"github.com/cleancare/ccadmin/pkg/permissions"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cleancare/ccadmin/pkg/scope")

// ZoneAssignments lists the zones assigned to a Super Admin
type ZoneAssignments interface {
	AssignedZoneIDs(ctx context.Context, userID int64) ([]int64, error)
}

// PermissionSource loads permission documents
type PermissionSource interface {
	GetPermissions(ctx context.Context, userID int64) (permissions.Document, error)
	HasCategoryAccess(ctx context.Context, userID int64, category string) (bool, error)
}

// WardLookup resolves the zone a ward belongs to. It returns geo.ErrNotFound
// for unknown wards.
type WardLookup interface {
	WardZoneID(ctx context.Context, wardID int64) (int64, error)
}

// DecisionRecorder counts allow and deny decisions
type DecisionRecorder interface {
	RecordAuthzDecision(ctx context.Context, decision, code string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthzDecision(context.Context, string, string) {}

// Resolver builds the scope middleware
type Resolver struct {
	zones    ZoneAssignments
	perms    PermissionSource
	wards    WardLookup
	log      logrus.FieldLogger
	recorder DecisionRecorder
}

type Option func(*Resolver)

func WithLogger(log logrus.FieldLogger) Option {
	return func(rv *Resolver) { rv.log = log }
}

func WithRecorder(rec DecisionRecorder) Option {
	return func(rv *Resolver) { rv.recorder = rec }
}

func NewResolver(zones ZoneAssignments, perms PermissionSource, wards WardLookup, opts ...Option) *Resolver {
	rv := &Resolver{
		zones:    zones,
		perms:    perms,
		wards:    wards,
		log:      observability.NopLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(rv)
	}
	return rv
}

// check inspects a request. A non-nil APIError denies it; a non-nil error is
// an internal fault. r is the request passed on to the next handler, so a
// check that reads the body must leave it readable.
type check func(ctx context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error)

type step struct {
	name  string
	state State
	fault string
	run   check
}

// middleware wraps a single step
func (rv *Resolver) middleware(s step) func(http.Handler) http.Handler {
	return rv.steps(s.fault, s)
}

// steps runs each step in order and marks the request authorized once all of
// them pass. Internal faults are reported with fault as the client message.
func (rv *Resolver) steps(fault string, steps ...step) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, res, ok := rv.begin(w, r)
			if !ok {
				return
			}
			for _, s := range steps {
				if !rv.run(w, r, res, s, fault) {
					return
				}
			}
			res.advance(StateAuthorized)
			next.ServeHTTP(w, r)
		})
	}
}

// begin returns the request carrying its Resolved scope. Requests without an
// identity are rejected with 401.
func (rv *Resolver) begin(w http.ResponseWriter, r *http.Request) (*http.Request, *Resolved, bool) {
	if res, ok := FromContext(r.Context()); ok {
		if res.State == StateDenied {
			httputil.WriteForbidden(w, httputil.CodeInsufficientPermissions, "Access denied")
			return r, res, false
		}
		return r, res, true
	}

	identity, ok := auth.FromContext(r.Context())
	if !ok {
		rv.recorder.RecordAuthzDecision(r.Context(), "deny", string(httputil.CodeTokenMissing))
		httputil.WriteUnauthorized(w, "Authentication required")
		return r, nil, false
	}
	res := newResolved(identity)
	return r.WithContext(contextkeys.WithScope(r.Context(), res)), res, true
}

func (rv *Resolver) run(w http.ResponseWriter, r *http.Request, res *Resolved, s step, fault string) bool {
	ctx, span := tracer.Start(r.Context(), "scope."+s.name, trace.WithAttributes(
		attribute.Int64("user.id", res.Identity.UserID),
		attribute.String("user.role", string(res.Identity.Role)),
	))
	defer span.End()

	apiErr, err := s.run(ctx, r, res)
	if err == nil && res.bodyTooLarge {
		apiErr = httputil.Validation("Request body too large").
			WithDetails(map[string]interface{}{"maxBytes": maxBodyBytes})
	}
	switch {
	case err != nil:
		res.advance(StateDenied)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.FromContext(r.Context(), rv.log).WithFields(logrus.Fields{
			"user_id": res.Identity.UserID,
			"role":    res.Identity.Role,
			"path":    r.URL.Path,
			"check":   s.name,
		}).WithError(err).Error(fault)
		rv.recorder.RecordAuthzDecision(ctx, "deny", string(httputil.CodeServerError))
		httputil.WriteAPIError(w, httputil.Internal(fault))
		return false
	case apiErr != nil:
		res.advance(StateDenied)
		span.SetAttributes(attribute.String("authz.decision", "deny"), attribute.String("authz.code", string(apiErr.Code)))
		rv.recorder.RecordAuthzDecision(ctx, "deny", string(apiErr.Code))
		httputil.WriteAPIError(w, apiErr)
		return false
	}
	res.advance(s.state)
	span.SetAttributes(attribute.String("authz.decision", "allow"))
	rv.recorder.RecordAuthzDecision(ctx, "allow", "none")
	return true
}

// assignedZones loads the Super Admin's zones once per request
func (rv *Resolver) assignedZones(ctx context.Context, res *Resolved) ([]int64, error) {
	if res.zonesLoaded {
		return res.AssignedZoneIDs, nil
	}
	ids, err := rv.zones.AssignedZoneIDs(ctx, res.Identity.UserID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	res.AssignedZoneIDs = ids
	res.zonesLoaded = true
	return ids, nil
}

// superAdminZones returns the zones a Super Admin may name: the assigned
// zones or, when none are assigned, the legacy profile zone.
func (rv *Resolver) superAdminZones(ctx context.Context, res *Resolved) ([]int64, error) {
	assigned, err := rv.assignedZones(ctx, res)
	if err != nil {
		return nil, err
	}
	if len(assigned) == 0 && res.Identity.ZoneID != nil {
		return []int64{*res.Identity.ZoneID}, nil
	}
	return assigned, nil
}

// document loads the caller's permission document once per request. A
// caller without a users row is treated as view-only with no features.
func (rv *Resolver) document(ctx context.Context, res *Resolved) (permissions.Document, error) {
	if res.document != nil {
		return *res.document, nil
	}
	doc, err := rv.perms.GetPermissions(ctx, res.Identity.UserID)
	if errors.Is(err, permissions.ErrUserNotFound) {
		doc, err = permissions.RoleDefaults("", nil, nil), nil
	}
	if err != nil {
		return permissions.Document{}, err
	}
	res.document = &doc
	return doc, nil
}
