package zones

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/stretchr/testify/require"
)

// fakeZones is an in-memory ZoneLookup. Zones 1-5 belong to DSCC, 7 to DNCC.
type fakeZones map[int64]geo.Zone

func (f fakeZones) ZonesByIDs(_ context.Context, ids []int64) ([]geo.Zone, error) {
	var out []geo.Zone
	for _, id := range ids {
		if z, ok := f[id]; ok {
			out = append(out, z)
		}
	}
	return out, nil
}

func testZones() fakeZones {
	zones := fakeZones{}
	for i := int64(1); i <= 5; i++ {
		zones[i] = geo.Zone{ID: i, ZoneNumber: int(i), CityCorporationID: 1, CityCorporationCode: "DSCC"}
	}
	zones[7] = geo.Zone{ID: 7, ZoneNumber: 1, CityCorporationID: 2, CityCorporationCode: "DNCC"}
	return zones
}

type captureAudit struct {
	mu     sync.Mutex
	events []*audit.Event
	err    error
}

func (c *captureAudit) Log(_ context.Context, e *audit.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.err
}

func (c *captureAudit) Close() error { return nil }

type recordedWrite struct {
	action string
	failed bool
}

type captureMetrics struct {
	writes []recordedWrite
}

func (c *captureMetrics) RecordZoneAssignment(action string, err error) {
	c.writes = append(c.writes, recordedWrite{action: action, failed: err != nil})
}

type fixture struct {
	registry *Registry
	mock     sqlmock.Sqlmock
	audit    *captureAudit
	metrics  *captureMetrics
	db       *sql.DB
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{mock: mock, audit: &captureAudit{}, metrics: &captureMetrics{}, db: db}
	opts = append([]Option{WithAuditLogger(f.audit), WithMetrics(f.metrics)}, opts...)
	f.registry = NewRegistry(NewStore(db), testZones(), opts...)
	return f
}

func userRow(id int64, role string, zoneID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "role", "zone_id"}).AddRow(id, role, zoneID)
}

func zoneIDRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"zone_id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

var errDB = errors.New("connection reset by peer")
