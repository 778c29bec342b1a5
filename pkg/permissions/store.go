package permissions

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/lib/pq"
)

// userRecord is the slice of a users row the permission checks need
type userRecord struct {
	ID     int64
	Role   auth.Role
	ZoneID *int64
	WardID *int64
	// Stored is nil when the user has no permission document yet
	Stored *Document
}

// effective returns the stored document or the role defaults
func (u *userRecord) effective() Document {
	if u.Stored != nil {
		return *u.Stored
	}
	return RoleDefaults(u.Role, u.ZoneID, u.WardID)
}

// Store reads and writes users.permissions
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectUser = `
	SELECT id, role, zone_id, ward_id, permissions
	FROM users
	WHERE id = $1
`

func (s *Store) user(ctx context.Context, userID int64) (*userRecord, error) {
	row := s.db.QueryRowContext(ctx, selectUser, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*userRecord, error) {
	var (
		u           userRecord
		role        string
		zone, ward  sql.NullInt64
		permissions []byte
	)
	if err := row.Scan(&u.ID, &role, &zone, &ward, &permissions); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	if zone.Valid {
		u.ZoneID = &zone.Int64
	}
	if ward.Valid {
		u.WardID = &ward.Int64
	}
	// SQL NULL and JSON null both mean no stored document
	if permissions = bytes.TrimSpace(permissions); len(permissions) > 0 && !bytes.Equal(permissions, []byte("null")) {
		var doc Document
		if err := json.Unmarshal(permissions, &doc); err != nil {
			return nil, fmt.Errorf("corrupt permission document for user %d: %w", u.ID, err)
		}
		u.Stored = &doc
	}
	return &u, nil
}

// save writes doc as the user's permission document
func (s *Store) save(ctx context.Context, userID int64, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET permissions = $2 WHERE id = $1`, userID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save permissions for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save permissions for user %d: %w", userID, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

const selectAdmins = `
	SELECT id, role, zone_id, ward_id, permissions
	FROM users
	WHERE role = ANY($1)
	ORDER BY id
`

func (s *Store) admins(ctx context.Context) ([]*userRecord, error) {
	roles := make([]string, len(auth.AdminRoles))
	for i, r := range auth.AdminRoles {
		roles[i] = string(r)
	}

	rows, err := s.db.QueryContext(ctx, selectAdmins, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var out []*userRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
