package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAudit struct {
	events []*audit.Event
}

func (c *captureAudit) Log(_ context.Context, e *audit.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *captureAudit) Close() error { return nil }

type fixture struct {
	service *Service
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
	audit   *captureAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	local, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)
	tiered := cache.NewTiered(cache.NewRedisBackend(client, ""), local)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		client.Close()
		db.Close()
	})

	f := &fixture{mock: mock, redis: mr, audit: &captureAudit{}}
	f.service = NewService(NewStore(db), WithCache(tiered, cache.DefaultTTLs()), WithAuditLogger(f.audit))
	return f
}

var (
	countQuery = regexp.QuoteMeta("SELECT COUNT(*) FROM users")
	listQuery  = regexp.QuoteMeta("SELECT id, first_name")
	statsQuery = regexp.QuoteMeta("SELECT role, COUNT(*) FROM users")
)

func (f *fixture) expectList(total int) {
	f.mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
	f.mock.ExpectQuery(listQuery).WillReturnRows(sqlmock.NewRows(columns))
}

func (f *fixture) expectStats(counts map[string]int) {
	rows := sqlmock.NewRows([]string{"role", "count"})
	for role, n := range counts {
		rows.AddRow(role, n)
	}
	f.mock.ExpectQuery(statsQuery).WillReturnRows(rows)
}

func TestService_ListIsCachedPerScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := ListQuery{Filter: Filter{Role: "CUSTOMER"}}

	f.expectList(5)
	page, err := f.service.List(ctx, predicateFor(super, 1, 2, 3), q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Equal(t, 1, page.Page)

	// same scope and query is served from the cache
	page, err = f.service.List(ctx, predicateFor(super, 1, 2, 3), q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)

	// a wider scope never sees the narrower entry
	f.expectList(90)
	page, err = f.service.List(ctx, predicateFor(master), q)
	require.NoError(t, err)
	assert.Equal(t, int64(90), page.Total)

	keys := f.redis.Keys()
	assert.Len(t, keys, 2)
	for _, k := range keys {
		assert.Regexp(t, `^users:list:[0-9a-f]{16}$`, k)
	}
	assert.InDelta(t, (120 * time.Second).Seconds(), f.redis.TTL(keys[0]).Seconds(), 1)
}

func TestService_ListClampsLimit(t *testing.T) {
	f := newFixture(t)
	f.expectList(0)
	page, err := f.service.List(context.Background(), predicateFor(master), ListQuery{Page: -3, Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Users)
}

func TestService_StatsKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("admin shares the single zone key", func(t *testing.T) {
		f := newFixture(t)
		f.expectStats(map[string]int{"CUSTOMER": 4})
		stats, err := f.service.Stats(ctx, predicateFor(admin), Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Total)
		assert.True(t, f.redis.Exists("users:stats:all:1:all:all"))

		// a master admin asking for zone 1 gets the same rows
		stats, err = f.service.Stats(ctx, predicateFor(master), Filter{ZoneID: int64p(1)})
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Total)
	})

	t.Run("super admin keys on every assigned zone", func(t *testing.T) {
		f := newFixture(t)
		f.expectStats(map[string]int{"ADMIN": 3})
		_, err := f.service.Stats(ctx, predicateFor(super, 3, 1, 2), Filter{Role: "ADMIN"})
		require.NoError(t, err)
		assert.True(t, f.redis.Exists("users:stats:all:1,2,3:all:ADMIN"))
	})

	t.Run("zone outside scope is empty", func(t *testing.T) {
		f := newFixture(t)
		stats, err := f.service.Stats(ctx, predicateFor(super, 1, 2), Filter{ZoneID: int64p(9)})
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Empty(t, f.redis.Keys())
	})

	t.Run("status filter bypasses the cache", func(t *testing.T) {
		f := newFixture(t)
		f.expectStats(map[string]int{"CUSTOMER": 1})
		f.expectStats(map[string]int{"CUSTOMER": 1})
		for i := 0; i < 2; i++ {
			_, err := f.service.Stats(ctx, predicateFor(master), Filter{Status: "SUSPENDED"})
			require.NoError(t, err)
		}
		assert.Empty(t, f.redis.Keys())
	})
}

func userRow(id int64, zone interface{}, status string) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow(id, "Karim", "Ahmed", "01700000000", "CUSTOMER", "DSCC", zone, nil, status, time.Now())
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("success invalidates and audits", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.redis.Set("users:stats:all:all:all:all", "{}"))
		require.NoError(t, f.redis.Set("users:40", "{}"))

		f.mock.ExpectQuery(listQuery).WithArgs(int64(40)).WillReturnRows(userRow(40, 1, "ACTIVE"))
		f.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status")).
			WithArgs(int64(40), "SUSPENDED").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, f.service.UpdateStatus(ctx, predicateFor(admin), 40, "SUSPENDED"))
		assert.Empty(t, f.redis.Keys())

		require.Len(t, f.audit.events, 1)
		e := f.audit.events[0]
		assert.Equal(t, audit.ActionUpdateUserStatus, e.Action)
		assert.Equal(t, int64(3), e.ActorID)
		assert.Equal(t, map[string]string{"status": "ACTIVE"}, e.OldValue)
		assert.Equal(t, map[string]string{"status": "SUSPENDED"}, e.NewValue)
	})

	t.Run("user outside scope is not found", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectQuery(listQuery).WithArgs(int64(41)).WillReturnRows(userRow(41, 5, "ACTIVE"))
		err := f.service.UpdateStatus(ctx, predicateFor(admin), 41, "SUSPENDED")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, f.audit.events)
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.UpdateStatus(ctx, predicateFor(master), 41, "DELETED")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestService_WithoutCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewStore(db))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(statsQuery).WillReturnRows(sqlmock.NewRows([]string{"role", "count"}))
		_, err := svc.Stats(context.Background(), predicateFor(master), Filter{})
		require.NoError(t, err)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
