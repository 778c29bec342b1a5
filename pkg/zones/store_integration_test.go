//go:build integration

package zones

import (
	"context"
	"testing"

	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/cleancare/ccadmin/pkg/schema/schematest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Postgres(t *testing.T) {
	db := schematest.SetupPostgres(t)
	ctx := context.Background()

	schematest.Seed(t, db,
		`INSERT INTO city_corporations (id, code, name) VALUES (1, 'DSCC', 'Dhaka South'), (2, 'DNCC', 'Dhaka North')`,
		`INSERT INTO zones (id, zone_number, name, city_corporation_id) VALUES
			(1, 1, 'Zone 1', 1), (2, 2, 'Zone 2', 1), (3, 3, 'Zone 3', 1), (7, 1, 'Zone 1', 2)`,
		`INSERT INTO users (id, first_name, last_name, phone, role) VALUES
			(1, 'Master', 'Admin', '01700000001', 'MASTER_ADMIN'),
			(10, 'Super', 'Admin', '01700000010', 'SUPER_ADMIN')`,
	)

	registry := NewRegistry(NewStore(db), geo.NewStore(db))

	require.NoError(t, registry.Assign(ctx, 10, []int64{3, 1, 2}, 1))

	ids, err := registry.AssignedZoneIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids, "assignment order is kept")

	var zoneID int64
	var code string
	require.NoError(t, db.QueryRow(`SELECT zone_id, city_corporation_code FROM users WHERE id = 10`).Scan(&zoneID, &code))
	assert.Equal(t, int64(3), zoneID, "primary zone is the first assigned")
	assert.Equal(t, "DSCC", code)

	err = registry.Assign(ctx, 10, []int64{1, 7}, 1)
	assert.True(t, IsValidationError(err))

	require.NoError(t, registry.Remove(ctx, 10, 1, 1))
	require.NoError(t, db.QueryRow(`SELECT zone_id FROM users WHERE id = 10`).Scan(&zoneID))
	assert.Contains(t, []int64{2, 3}, zoneID)

	err = registry.Remove(ctx, 10, 2, 1)
	assert.True(t, IsValidationError(err), "two zones is the floor")

	zones, err := registry.AssignedZones(ctx, 10)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, 2, zones[0].ZoneNumber)

	admins, err := registry.SuperAdminsByZone(ctx, 3)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, int64(10), admins[0].ID)
}
