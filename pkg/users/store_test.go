package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/scope"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

// predicateFor resolves the scope a handler would see for identity
func predicateFor(identity *auth.Identity, assigned ...int64) *scope.Resolved {
	return &scope.Resolved{Identity: identity, AssignedZoneIDs: assigned}
}

var (
	master = &auth.Identity{UserID: 1, Role: auth.RoleMasterAdmin}
	super  = &auth.Identity{UserID: 2, Role: auth.RoleSuperAdmin, ZoneID: int64p(1)}
	admin  = &auth.Identity{UserID: 3, Role: auth.RoleAdmin, ZoneID: int64p(1), WardID: int64p(12)}
)

func TestWhere(t *testing.T) {
	clause, args := where(Filter{}, scope.Predicate{})
	assert.Empty(t, clause)
	assert.Empty(t, args)

	clause, args = where(Filter{Role: "ADMIN", WardID: int64p(12)}, predicateFor(admin).Filter())
	assert.Equal(t, " WHERE role = $1 AND ward_id = $2 AND zone_id = $3", clause)
	assert.Equal(t, []interface{}{"ADMIN", int64(12), int64(1)}, args)

	clause, args = where(Filter{CityCorporationCode: "DSCC", ZoneID: int64p(2), Status: "ACTIVE"},
		predicateFor(super, 1, 2, 3).Filter())
	assert.Equal(t, " WHERE city_corporation_code = $1 AND zone_id = $2 AND status = $3 AND zone_id = ANY($4)", clause)
	assert.Equal(t, []interface{}{"DSCC", int64(2), "ACTIVE", pq.Array([]int64{1, 2, 3})}, args)
}

var columns = []string{"id", "first_name", "last_name", "phone", "role", "city_corporation_code", "zone_id", "ward_id", "status", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewStore(db), mock
}

func TestStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE zone_id = ANY($1)")).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE zone_id = ANY($1) ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs(pq.Array([]int64{1, 2}), 2, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(7, "Rahim", "Uddin", "01700000007", "CUSTOMER", "DSCC", 2, 21, "ACTIVE", created))

	page, err := store.List(context.Background(), ListQuery{Page: 2, Limit: 2}, predicateFor(super, 1, 2).Filter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Users, 1)
	u := page.Users[0]
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, auth.RoleCustomer, u.Role)
	assert.Equal(t, "DSCC", u.CityCorporationCode)
	assert.Equal(t, int64p(2), u.ZoneID)
	assert.Equal(t, created, u.CreatedAt)
}

func TestStore_Stats(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role, COUNT(*) FROM users WHERE zone_id = $1 GROUP BY role ORDER BY role")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow("ADMIN", 2).
			AddRow("CUSTOMER", 40))

	stats, err := store.Stats(context.Background(), Filter{}, predicateFor(admin).Filter())
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Total)
	assert.Equal(t, map[string]int64{"ADMIN": 2, "CUSTOMER": 40}, stats.ByRole)
}

func TestStore_GetAndSetStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status = $2 WHERE id = $1")).
		WithArgs(int64(404), "INACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, store.SetStatus(context.Background(), 404, "INACTIVE"), ErrUserNotFound)
}
