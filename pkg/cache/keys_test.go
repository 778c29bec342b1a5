package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilders(t *testing.T) {
	zone, ward := int64(3), int64(12)

	assert.Equal(t, "users:stats:all:all:all:all", UserStatsKey("", nil, nil, ""))
	assert.Equal(t, "users:stats:DSCC:3:12:ADMIN", UserStatsKey("DSCC", &zone, &ward, "ADMIN"))
	assert.Equal(t, "users:stats:DSCC:1,2,3:all:all", UserStatsKeyForZones("DSCC", []int64{3, 1, 2}, nil, ""))
	assert.Equal(t, "users:stats:all:all:all:all", UserStatsKeyForZones("", nil, nil, ""))
	assert.Equal(t, "users:42", UserKey(42))
	assert.Equal(t, "complaints:stats:42", ComplaintStatsKey(42))
	assert.Equal(t, "dashboard:stats:DNCC:3:all", DashboardStatsKey("DNCC", &zone, nil))
	assert.Equal(t, "zones:assigned:8", AssignedZonesKey(8))
}

func TestUserListKey_StableAndDistinct(t *testing.T) {
	type query struct {
		Page  int    `json:"page"`
		Role  string `json:"role"`
		Zones []int64
	}

	a := UserListKey(query{Page: 1, Role: "ADMIN", Zones: []int64{1, 2}})
	b := UserListKey(query{Page: 1, Role: "ADMIN", Zones: []int64{1, 2}})
	c := UserListKey(query{Page: 2, Role: "ADMIN", Zones: []int64{1, 2}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^users:list:[0-9a-f]{16}$`, a)
	assert.Regexp(t, `^activity:logs:[0-9a-f]{16}$`, ActivityLogsKey(map[string]string{"action": "ASSIGN_ZONES"}))
}

func TestDefaultTTLs(t *testing.T) {
	ttls := DefaultTTLs()
	assert.Equal(t, 2*time.Minute, ttls.List)
	assert.Equal(t, 5*time.Minute, ttls.Stats)
	assert.Equal(t, 5*time.Minute, ttls.Detail)
	assert.Equal(t, time.Minute, ttls.Activity)
}
