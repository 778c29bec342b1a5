package zones

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/lib/pq"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists zone assignments in user_zones
type Store struct {
	db *sql.DB
	q  *Queries
}

// NewStore creates a new assignment store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: &Queries{db: db}}
}

// Queries runs outside a transaction
func (s *Store) Queries() *Queries {
	return s.q
}

// InTx runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Queries{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Queries holds the assignment statements
type Queries struct {
	db dbtx
}

// UserRef is the part of a user record the registry needs
type UserRef struct {
	ID     int64
	Role   auth.Role
	ZoneID *int64
}

// SuperAdmin is a user assigned to a zone
type SuperAdmin struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone"`
	Status     string    `json:"status"`
	AssignedAt time.Time `json:"assignedAt"`
}

// User loads the role and primary zone of a user
func (q *Queries) User(ctx context.Context, userID int64) (*UserRef, error) {
	var (
		u      UserRef
		role   string
		zoneID sql.NullInt64
	)
	err := q.db.QueryRowContext(ctx, `SELECT id, role, zone_id FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &role, &zoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = auth.Role(role)
	if zoneID.Valid {
		u.ZoneID = &zoneID.Int64
	}
	return &u, nil
}

// ZoneIDs returns the zones assigned to a user in the order they were given,
// so the first id is the legacy primary zone.
func (q *Queries) ZoneIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT zone_id FROM user_zones WHERE user_id = $1 ORDER BY position, assigned_at, zone_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned zones: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan zone id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasAssignment reports whether zoneID is assigned to userID
func (q *Queries) HasAssignment(ctx context.Context, userID, zoneID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_zones WHERE user_id = $1 AND zone_id = $2)`, userID, zoneID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check zone assignment: %w", err)
	}
	return exists, nil
}

// CountAssignments counts a user's assigned zones
func (q *Queries) CountAssignments(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_zones WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count zone assignments: %w", err)
	}
	return n, nil
}

// ReplaceAssignments deletes every assignment of userID and inserts zoneIDs,
// recording each zone's position in the slice.
func (q *Queries) ReplaceAssignments(ctx context.Context, userID int64, zoneIDs []int64, assignedBy int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM user_zones WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear zone assignments: %w", err)
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_zones (user_id, zone_id, assigned_by, assigned_at, position)
		SELECT $1, t.zone_id, $3, NOW(), t.position
		FROM unnest($2::bigint[]) WITH ORDINALITY AS t(zone_id, position)
	`, userID, pq.Array(zoneIDs), assignedBy)
	if err != nil {
		return fmt.Errorf("failed to insert zone assignments: %w", err)
	}
	return nil
}

// DeleteAssignment removes a single assignment
func (q *Queries) DeleteAssignment(ctx context.Context, userID, zoneID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM user_zones WHERE user_id = $1 AND zone_id = $2`, userID, zoneID)
	if err != nil {
		return fmt.Errorf("failed to delete zone assignment: %w", err)
	}
	return nil
}

// SetProfileScope updates the legacy single-zone fields on the user
func (q *Queries) SetProfileScope(ctx context.Context, userID, zoneID int64, cityCorporationCode string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET zone_id = $2, city_corporation_code = $3 WHERE id = $1`,
		userID, zoneID, cityCorporationCode)
	if err != nil {
		return fmt.Errorf("failed to update user zone: %w", err)
	}
	return nil
}

// SetPrimaryZone updates only the legacy zone on the user
func (q *Queries) SetPrimaryZone(ctx context.Context, userID, zoneID int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET zone_id = $2 WHERE id = $1`, userID, zoneID)
	if err != nil {
		return fmt.Errorf("failed to update primary zone: %w", err)
	}
	return nil
}

// AssignedZones returns zone details for a user ordered by zone number
func (q *Queries) AssignedZones(ctx context.Context, userID int64) ([]geo.Zone, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT z.id, z.zone_number, z.name, z.city_corporation_id, cc.code
		FROM user_zones uz
		JOIN zones z ON z.id = uz.zone_id
		JOIN city_corporations cc ON cc.id = z.city_corporation_id
		WHERE uz.user_id = $1
		ORDER BY z.zone_number, z.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned zone details: %w", err)
	}
	defer rows.Close()

	zones := []geo.Zone{}
	for rows.Next() {
		var z geo.Zone
		if err := rows.Scan(&z.ID, &z.ZoneNumber, &z.Name, &z.CityCorporationID, &z.CityCorporationCode); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// SuperAdminsByZone returns the users assigned to zoneID
func (q *Queries) SuperAdminsByZone(ctx context.Context, zoneID int64) ([]SuperAdmin, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.phone, u.status, uz.assigned_at
		FROM user_zones uz
		JOIN users u ON u.id = uz.user_id
		WHERE uz.zone_id = $1
		ORDER BY u.id
	`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone super admins: %w", err)
	}
	defer rows.Close()

	admins := []SuperAdmin{}
	for rows.Next() {
		var a SuperAdmin
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Phone, &a.Status, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan super admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}
