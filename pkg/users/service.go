package users

import (
	"context"
	"errors"
	"time"

	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/cleancare/ccadmin/pkg/observability"
	"github.com/cleancare/ccadmin/pkg/scope"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Statuses a user account can be set to
var Statuses = []string{"ACTIVE", "INACTIVE", "SUSPENDED"}

var ErrInvalidStatus = errors.New("Invalid status")

// Service serves scoped user listings and statistics, cached under the
// users:* key namespace.
type Service struct {
	store *Store
	cache *cache.Tiered
	ttls  cache.TTLs
	audit audit.Logger
	log   logrus.FieldLogger
}

type Option func(*Service)

func WithCache(c *cache.Tiered, ttls cache.TTLs) Option {
	return func(s *Service) {
		s.cache = c
		s.ttls = ttls
	}
}

func WithAuditLogger(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		ttls:  cache.DefaultTTLs(),
		audit: audit.NopLogger{},
		log:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// listKey is hashed into the list cache key. The scope's zones are part of
// it so callers with different scopes never share an entry.
type listKey struct {
	Query ListQuery `json:"query"`
	Zones []int64   `json:"zones"`
}

// List returns a page of the users visible to res
func (s *Service) List(ctx context.Context, res *scope.Resolved, q ListQuery) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	pred := res.Filter()
	key := cache.UserListKey(listKey{Query: q, Zones: pred.ZoneIDs()})
	return fetch(ctx, s, key, s.ttls.List, func(ctx context.Context) (*Page, error) {
		return s.store.List(ctx, q, pred)
	})
}

// Stats counts the users visible to res by role
func (s *Service) Stats(ctx context.Context, res *scope.Resolved, f Filter) (*Stats, error) {
	pred := res.Filter()

	zones := pred.ZoneIDs()
	if f.ZoneID != nil {
		if !pred.Allows(f.ZoneID) {
			return &Stats{ByRole: map[string]int64{}}, nil
		}
		zones = []int64{*f.ZoneID}
	}

	if f.Status != "" {
		// status is not part of the stats key namespace
		return s.store.Stats(ctx, f, pred)
	}

	var key string
	if len(zones) <= 1 {
		var zone *int64
		if len(zones) == 1 {
			zone = &zones[0]
		}
		key = cache.UserStatsKey(f.CityCorporationCode, zone, f.WardID, f.Role)
	} else {
		key = cache.UserStatsKeyForZones(f.CityCorporationCode, zones, f.WardID, f.Role)
	}
	return fetch(ctx, s, key, s.ttls.Stats, func(ctx context.Context) (*Stats, error) {
		return s.store.Stats(ctx, f, pred)
	})
}

// UpdateStatus changes the account status of a user visible to res
func (s *Service) UpdateStatus(ctx context.Context, res *scope.Resolved, userID int64, status string) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !res.Filter().Allows(u.ZoneID) {
		return ErrUserNotFound
	}
	if err := s.store.SetStatus(ctx, userID, status); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}

	audit.Record(ctx, s.audit, s.log, &audit.Event{
		ActorID:    res.Identity.UserID,
		Action:     audit.ActionUpdateUserStatus,
		EntityType: audit.EntityTypeUser,
		EntityID:   userID,
		OldValue:   map[string]string{"status": u.Status},
		NewValue:   map[string]string{"status": status},
	})
	return nil
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func fetch[T any](ctx context.Context, s *Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, s.cache, key, ttl, load)
}
