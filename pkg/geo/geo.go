// Package geo reads the City Corporation → Zone → Ward hierarchy.
package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a ward or zone does not exist
var ErrNotFound = errors.New("not found")

// Zone is a zone together with its parent City Corporation
type Zone struct {
	ID                  int64  `json:"id"`
	ZoneNumber          int    `json:"zoneNumber"`
	Name                string `json:"name"`
	CityCorporationID   int64  `json:"cityCorporationId"`
	CityCorporationCode string `json:"cityCorporationCode"`
}

// Store reads hierarchy rows from Postgres
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ZonesByIDs returns the zones that exist among ids, ordered by zone number.
// Missing ids are skipped; callers compare lengths to detect them.
func (s *Store) ZonesByIDs(ctx context.Context, ids []int64) ([]Zone, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT z.id, z.zone_number, z.name, z.city_corporation_id, cc.code
		FROM zones z
		JOIN city_corporations cc ON cc.id = z.city_corporation_id
		WHERE z.id = ANY($1)
		ORDER BY z.zone_number, z.id
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.ZoneNumber, &z.Name, &z.CityCorporationID, &z.CityCorporationCode); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// WardZoneID returns the zone a ward belongs to
func (s *Store) WardZoneID(ctx context.Context, wardID int64) (int64, error) {
	var zoneID int64
	err := s.db.QueryRowContext(ctx, `SELECT zone_id FROM wards WHERE id = $1`, wardID).Scan(&zoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ward zone: %w", err)
	}
	return zoneID, nil
}
