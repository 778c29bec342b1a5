package permissions

import (
	"context"
	"errors"
	"io"

	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/sirupsen/logrus"
)

// WardLookup resolves a ward to its parent zone
type WardLookup interface {
	WardZoneID(ctx context.Context, wardID int64) (int64, error)
}

// ZoneAccess reports multi-zone assignments. It backs Super Admin zone checks
// in addition to the legacy profile zone.
type ZoneAccess interface {
	HasAccess(ctx context.Context, userID, zoneID int64) (bool, error)
}

// Service answers permission questions and updates permission documents
type Service struct {
	store *Store
	wards WardLookup
	zones ZoneAccess
	cache *cache.Tiered
	audit audit.Logger
	log   logrus.FieldLogger
}

type Option func(*Service)

func WithZoneAccess(z ZoneAccess) Option {
	return func(s *Service) { s.zones = z }
}

// WithCache invalidates the user's cached entries after every write
func WithCache(c *cache.Tiered) Option {
	return func(s *Service) { s.cache = c }
}

func WithAuditLogger(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store *Store, wards WardLookup, opts ...Option) *Service {
	discard := logrus.New()
	discard.Out = io.Discard
	s := &Service{store: store, wards: wards, audit: audit.NopLogger{}, log: discard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPermissions returns the stored document, or the role defaults when the
// user has none.
func (s *Service) GetPermissions(ctx context.Context, userID int64) (Document, error) {
	u, err := s.store.user(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	return u.effective(), nil
}

// HasPermission reports whether the user holds feature. Master Admins hold
// every feature and unknown users hold none.
func (s *Service) HasPermission(ctx context.Context, userID int64, feature Feature) (bool, error) {
	u, err := s.store.user(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.Role == auth.RoleMasterAdmin {
		return true, nil
	}
	return u.effective().Features.Get(feature), nil
}

// HasZoneAccess reports whether the user may act on zoneID
func (s *Service) HasZoneAccess(ctx context.Context, userID, zoneID int64) (bool, error) {
	u, err := s.store.user(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch u.Role {
	case auth.RoleMasterAdmin:
		return true, nil
	case auth.RoleSuperAdmin:
		if u.ZoneID != nil && *u.ZoneID == zoneID {
			return true, nil
		}
		if s.zones != nil {
			return s.zones.HasAccess(ctx, userID, zoneID)
		}
		return false, nil
	}
	return u.effective().Zones.Contains(zoneID), nil
}

// HasWardAccess reports whether the user may act on wardID
func (s *Service) HasWardAccess(ctx context.Context, userID, wardID int64) (bool, error) {
	u, err := s.store.user(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch {
	case u.Role == auth.RoleMasterAdmin:
		return true, nil
	case u.Role == auth.RoleSuperAdmin && u.ZoneID != nil:
		parent, err := s.wards.WardZoneID(ctx, wardID)
		if err != nil {
			if errors.Is(err, geo.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if parent == *u.ZoneID {
			return true, nil
		}
		if s.zones != nil {
			return s.zones.HasAccess(ctx, userID, parent)
		}
		return false, nil
	case u.Role == auth.RoleAdmin:
		return u.WardID != nil && *u.WardID == wardID, nil
	}
	return u.effective().Wards.Contains(wardID), nil
}

// HasCategoryAccess reports whether the user may act on category
func (s *Service) HasCategoryAccess(ctx context.Context, userID int64, category string) (bool, error) {
	u, err := s.store.user(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.Role == auth.RoleMasterAdmin {
		return true, nil
	}
	return u.effective().Categories.Contains(category), nil
}

// UpdatePermissions merges patch over the user's current document and stores
// the result. Documents with conflicting flags are rejected with a
// *ConflictError and nothing is written.
func (s *Service) UpdatePermissions(ctx context.Context, userID int64, patch Patch, actorID int64) (Document, error) {
	u, err := s.store.user(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	current := u.effective()

	merged, err := current.Apply(patch)
	if err != nil {
		return Document{}, err
	}
	if conflicts := DetectConflicts(merged); len(conflicts) > 0 {
		return Document{}, &ConflictError{Conflicts: conflicts}
	}

	if err := s.store.save(ctx, userID, merged); err != nil {
		return Document{}, err
	}
	s.invalidate(ctx, userID)

	audit.Record(ctx, s.audit, s.log, &audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionUpdatePermissions,
		EntityType: audit.EntityTypeUser,
		EntityID:   userID,
		OldValue:   current,
		NewValue:   merged,
	})
	s.log.WithFields(logrus.Fields{"user_id": userID, "actor_id": actorID}).Info("permissions updated")
	return merged, nil
}

// InitializePermissions stores the role defaults for the user, replacing any
// existing document.
func (s *Service) InitializePermissions(ctx context.Context, userID int64) (Document, error) {
	u, err := s.store.user(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	doc := RoleDefaults(u.Role, u.ZoneID, u.WardID)
	if err := s.store.save(ctx, userID, doc); err != nil {
		return Document{}, err
	}
	s.invalidate(ctx, userID)
	return doc, nil
}

// UsersWithPermission lists the admin users whose effective document grants
// feature, in id order.
func (s *Service) UsersWithPermission(ctx context.Context, feature Feature) ([]int64, error) {
	admins, err := s.store.admins(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(admins))
	for _, u := range admins {
		if u.effective().Features.Get(feature) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// CheckManage reports whether actor may change the permissions of targetID.
// Super Admins may only manage Admins inside their zones.
func (s *Service) CheckManage(ctx context.Context, actor *auth.Identity, targetID int64) error {
	switch actor.Role {
	case auth.RoleMasterAdmin:
		return nil
	case auth.RoleSuperAdmin:
	default:
		return ErrTargetNotManageable
	}

	target, err := s.store.user(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role != auth.RoleAdmin {
		return ErrTargetNotManageable
	}
	if target.ZoneID == nil {
		return ErrTargetOutsideZones
	}
	ok, err := s.HasZoneAccess(ctx, actor.UserID, *target.ZoneID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTargetOutsideZones
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
}
