package zones

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MinZones = 2
	MaxZones = 5
)

var tracer = otel.Tracer("github.com/cleancare/ccadmin/pkg/zones")

// ZoneLookup resolves zone ids to zones with their parent City Corporation
type ZoneLookup interface {
	ZonesByIDs(ctx context.Context, ids []int64) ([]geo.Zone, error)
}

// Metrics counts registry writes
type Metrics interface {
	RecordZoneAssignment(action string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordZoneAssignment(string, error) {}

// Registry is the Super Admin zone assignment service
type Registry struct {
	store    *Store
	zones    ZoneLookup
	cache    *cache.Tiered
	cacheTTL time.Duration
	audit    audit.Logger
	log      logrus.FieldLogger
	metrics  Metrics
}

// Option configures a Registry
type Option func(*Registry)

// WithCache serves AssignedZoneIDs through c
func WithCache(c *cache.Tiered, ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

func WithAuditLogger(l audit.Logger) Option {
	return func(r *Registry) { r.audit = l }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = log }
}

func WithMetrics(m Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates a registry over store, validating zones with lookup
func NewRegistry(store *Store, lookup ZoneLookup, opts ...Option) *Registry {
	discard := logrus.New()
	discard.Out = io.Discard
	r := &Registry{
		store:    store,
		zones:    lookup,
		cacheTTL: 5 * time.Minute,
		audit:    audit.NopLogger{},
		log:      discard,
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Assign replaces the zones assigned to a Super Admin
func (r *Registry) Assign(ctx context.Context, userID int64, zoneIDs []int64, assignedBy int64) (err error) {
	ctx, span := r.startSpan(ctx, "zones.Assign", userID)
	defer func() { r.finish(span, string(audit.ActionAssignZones), err) }()

	code, err := r.validate(ctx, userID, zoneIDs)
	if err != nil {
		return err
	}

	err = r.store.InTx(ctx, func(q *Queries) error {
		return replace(ctx, q, userID, zoneIDs, assignedBy, code)
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, userID)
	audit.Record(ctx, r.audit, r.log, &audit.Event{
		ActorID:    assignedBy,
		Action:     audit.ActionAssignZones,
		EntityType: audit.EntityTypeUser,
		EntityID:   userID,
		NewValue:   map[string]interface{}{"zoneIds": zoneIDs},
	})
	return nil
}

// Update replaces the zones assigned to a Super Admin and records the change
// from the previous set.
func (r *Registry) Update(ctx context.Context, userID int64, zoneIDs []int64, updatedBy int64) (err error) {
	ctx, span := r.startSpan(ctx, "zones.Update", userID)
	defer func() { r.finish(span, string(audit.ActionUpdateZoneAssignments), err) }()

	code, err := r.validate(ctx, userID, zoneIDs)
	if err != nil {
		return err
	}

	var previous []int64
	err = r.store.InTx(ctx, func(q *Queries) error {
		var err error
		if previous, err = q.ZoneIDs(ctx, userID); err != nil {
			return err
		}
		return replace(ctx, q, userID, zoneIDs, updatedBy, code)
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, userID)
	audit.Record(ctx, r.audit, r.log, &audit.Event{
		ActorID:    updatedBy,
		Action:     audit.ActionUpdateZoneAssignments,
		EntityType: audit.EntityTypeUser,
		EntityID:   userID,
		OldValue:   map[string]interface{}{"zoneIds": previous},
		NewValue:   map[string]interface{}{"zoneIds": zoneIDs},
	})
	return nil
}

func replace(ctx context.Context, q *Queries, userID int64, zoneIDs []int64, assignedBy int64, code string) error {
	if err := q.ReplaceAssignments(ctx, userID, zoneIDs, assignedBy); err != nil {
		return err
	}
	return q.SetProfileScope(ctx, userID, zoneIDs[0], code)
}

// validate applies the assignment rules in order and returns the shared City
// Corporation code of the zones.
func (r *Registry) validate(ctx context.Context, userID int64, zoneIDs []int64) (string, error) {
	if len(zoneIDs) < MinZones || len(zoneIDs) > MaxZones {
		return "", invalid(ReasonZoneCount, "Super Admin must be assigned 2 to 5 zones")
	}

	user, err := r.store.Queries().User(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.Role != auth.RoleSuperAdmin {
		return "", invalid(ReasonNotSuperAdmin, "Only Super Admins can be assigned multiple zones")
	}

	unique := dedupe(zoneIDs)
	zones, err := r.zones.ZonesByIDs(ctx, unique)
	if err != nil {
		return "", fmt.Errorf("failed to look up zones: %w", err)
	}
	if len(zones) != len(unique) {
		return "", invalid(ReasonZoneNotFound, "One or more zones not found")
	}

	for _, z := range zones[1:] {
		if z.CityCorporationID != zones[0].CityCorporationID {
			return "", invalid(ReasonMixedCity, "All zones must belong to the same City Corporation")
		}
	}

	if len(unique) != len(zoneIDs) {
		return "", invalid(ReasonDuplicateZone, "Duplicate zone assignments are not allowed")
	}

	return zones[0].CityCorporationCode, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Remove unassigns one zone. A Super Admin never drops below two zones. If
// the removed zone was the user's primary zone another assigned zone takes
// its place.
func (r *Registry) Remove(ctx context.Context, userID, zoneID, removedBy int64) (err error) {
	ctx, span := r.startSpan(ctx, "zones.Remove", userID)
	span.SetAttributes(attribute.Int64("zone.id", zoneID))
	defer func() { r.finish(span, string(audit.ActionRemoveZone), err) }()

	err = r.store.InTx(ctx, func(q *Queries) error {
		assigned, err := q.HasAssignment(ctx, userID, zoneID)
		if err != nil {
			return err
		}
		if !assigned {
			return invalid(ReasonZoneNotAssigned, "Zone not assigned to this user")
		}

		count, err := q.CountAssignments(ctx, userID)
		if err != nil {
			return err
		}
		if count <= MinZones {
			return invalid(ReasonBelowMinimum, "Cannot remove zone. Super Admin must have at least 2 zones assigned")
		}

		if err := q.DeleteAssignment(ctx, userID, zoneID); err != nil {
			return err
		}

		user, err := q.User(ctx, userID)
		if err != nil {
			return err
		}
		if user.ZoneID == nil || *user.ZoneID != zoneID {
			return nil
		}
		remaining, err := q.ZoneIDs(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		return q.SetPrimaryZone(ctx, userID, remaining[0])
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, userID)
	audit.Record(ctx, r.audit, r.log, &audit.Event{
		ActorID:    removedBy,
		Action:     audit.ActionRemoveZone,
		EntityType: audit.EntityTypeUser,
		EntityID:   userID,
		OldValue:   map[string]interface{}{"zoneId": zoneID},
	})
	return nil
}

// AssignedZoneIDs returns the zones assigned to userID, or an empty slice
// when the user has no multi-zone assignment.
func (r *Registry) AssignedZoneIDs(ctx context.Context, userID int64) ([]int64, error) {
	load := func(ctx context.Context) ([]int64, error) {
		return r.store.Queries().ZoneIDs(ctx, userID)
	}
	if r.cache == nil {
		return load(ctx)
	}
	ids, err := cache.Fetch(ctx, r.cache, cache.AssignedZonesKey(userID), r.cacheTTL, load)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// AssignedZones returns zone details for userID ordered by zone number
func (r *Registry) AssignedZones(ctx context.Context, userID int64) ([]geo.Zone, error) {
	return r.store.Queries().AssignedZones(ctx, userID)
}

// SuperAdminsByZone returns the Super Admins assigned to zoneID
func (r *Registry) SuperAdminsByZone(ctx context.Context, zoneID int64) ([]SuperAdmin, error) {
	return r.store.Queries().SuperAdminsByZone(ctx, zoneID)
}

// HasAccess reports whether zoneID is among userID's assignments
func (r *Registry) HasAccess(ctx context.Context, userID, zoneID int64) (bool, error) {
	return r.store.Queries().HasAssignment(ctx, userID, zoneID)
}

// invalidate drops the cached zone ids and everything derived from the
// user's profile, which Assign and Remove both modify.
func (r *Registry) invalidate(ctx context.Context, userID int64) {
	if r.cache == nil {
		return
	}
	r.cache.InvalidateAssignedZones(ctx, userID)
	r.cache.InvalidateUser(ctx, userID)
}

func (r *Registry) startSpan(ctx context.Context, name string, userID int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("user.id", userID)))
}

func (r *Registry) finish(span trace.Span, action string, err error) {
	r.metrics.RecordZoneAssignment(action, err)
	if err != nil {
		span.RecordError(err)
		if !IsValidationError(err) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
