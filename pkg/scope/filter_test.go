package scope

import (
	"testing"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func int64p(v int64) *int64 { return &v }

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name     string
		resolved *Resolved
		want     []int64
	}{
		{"nil scope", nil, nil},
		{"master admin", &Resolved{Identity: &auth.Identity{Role: auth.RoleMasterAdmin, ZoneID: int64p(3)}}, nil},
		{
			"super admin with assigned zones",
			&Resolved{Identity: &auth.Identity{Role: auth.RoleSuperAdmin, ZoneID: int64p(3)}, AssignedZoneIDs: []int64{1, 2}},
			[]int64{1, 2},
		},
		{
			"super admin without assignments falls back to legacy zone",
			&Resolved{Identity: &auth.Identity{Role: auth.RoleSuperAdmin, ZoneID: int64p(3)}, AssignedZoneIDs: []int64{}},
			[]int64{3},
		},
		{"admin legacy zone", &Resolved{Identity: &auth.Identity{Role: auth.RoleAdmin, ZoneID: int64p(4)}}, []int64{4}},
		{"admin without zone", &Resolved{Identity: &auth.Identity{Role: auth.RoleAdmin}}, nil},
		{"super admin with nothing", &Resolved{Identity: &auth.Identity{Role: auth.RoleSuperAdmin}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildFilter(tt.resolved)
			assert.Equal(t, tt.want, p.ZoneIDs())
			assert.Equal(t, tt.want == nil, p.IsEmpty())
			assert.Equal(t, p, BuildFilter(tt.resolved), "repeat calls agree")
		})
	}
}

func TestBuildFilter_DoesNotAlias(t *testing.T) {
	res := &Resolved{Identity: &auth.Identity{Role: auth.RoleSuperAdmin}, AssignedZoneIDs: []int64{1, 2}}
	p := res.Filter()
	res.AssignedZoneIDs[0] = 9
	assert.Equal(t, []int64{1, 2}, p.ZoneIDs())
}

func TestPredicate_SQL(t *testing.T) {
	clause, args := Predicate{}.SQL("u.zone_id", 1)
	assert.Empty(t, clause)
	assert.Nil(t, args)

	clause, args = Predicate{zoneIDs: []int64{4}}.SQL("u.zone_id", 2)
	assert.Equal(t, "u.zone_id = $2", clause)
	assert.Equal(t, []interface{}{int64(4)}, args)

	clause, args = Predicate{zoneIDs: []int64{1, 2, 3}}.SQL("zone_id", 3)
	assert.Equal(t, "zone_id = ANY($3)", clause)
	assert.Equal(t, []interface{}{pq.Array([]int64{1, 2, 3})}, args)
}

func TestPredicate_Allows(t *testing.T) {
	assert.True(t, Predicate{}.Allows(nil))
	assert.True(t, Predicate{}.Allows(int64p(99)))

	p := Predicate{zoneIDs: []int64{1, 2}}
	assert.True(t, p.Allows(int64p(2)))
	assert.False(t, p.Allows(int64p(3)))
	assert.False(t, p.Allows(nil))
}

func TestPredicate_String(t *testing.T) {
	assert.Equal(t, "unrestricted", Predicate{}.String())
	assert.Equal(t, "zone = 4", Predicate{zoneIDs: []int64{4}}.String())
	assert.Equal(t, "zone IN (1, 2, 3)", Predicate{zoneIDs: []int64{1, 2, 3}}.String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "UNSCOPED", StateUnscoped.String())
	assert.Equal(t, "ZONE_POPULATED", StateZonePopulated.String())
	assert.Equal(t, "DENIED", StateDenied.String())
}

func TestResolved_NoTransitionAfterDenied(t *testing.T) {
	res := newResolved(&auth.Identity{Role: auth.RoleAdmin})
	res.advance(StateRoleChecked)
	res.advance(StateUnscoped)
	assert.Equal(t, StateRoleChecked, res.State)

	res.advance(StateDenied)
	res.advance(StateAuthorized)
	assert.Equal(t, StateDenied, res.State)
}
