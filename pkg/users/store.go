package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/scope"
)

var ErrUserNotFound = errors.New("User not found")

// User is the listing view of a users row
type User struct {
	ID                  int64     `json:"id"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Phone               string    `json:"phone"`
	Role                auth.Role `json:"role"`
	CityCorporationCode string    `json:"cityCorporationCode,omitempty"`
	ZoneID              *int64    `json:"zoneId,omitempty"`
	WardID              *int64    `json:"wardId,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Filter narrows a listing or statistic. Every set field is AND-ed with the
// caller's scope predicate.
type Filter struct {
	Role                string `json:"role,omitempty"`
	CityCorporationCode string `json:"cityCorporationCode,omitempty"`
	ZoneID              *int64 `json:"zoneId,omitempty"`
	WardID              *int64 `json:"wardId,omitempty"`
	Status              string `json:"status,omitempty"`
}

// ListQuery is a filtered page request
type ListQuery struct {
	Filter
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is one page of users
type Page struct {
	Users      []User `json:"users"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// Stats counts users by role
type Stats struct {
	Total  int64            `json:"total"`
	ByRole map[string]int64 `json:"byRole"`
}

// Store reads the users table
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, first_name, last_name, phone, role, city_corporation_code, zone_id, ward_id, status, created_at`

// where renders f and pred as a WHERE clause with numbered placeholders
func where(f Filter, pred scope.Predicate) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Role != "" {
		add("role = $%d", f.Role)
	}
	if f.CityCorporationCode != "" {
		add("city_corporation_code = $%d", f.CityCorporationCode)
	}
	if f.ZoneID != nil {
		add("zone_id = $%d", *f.ZoneID)
	}
	if f.WardID != nil {
		add("ward_id = $%d", *f.WardID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if clause, predArgs := pred.SQL("zone_id", len(args)+1); clause != "" {
		conds = append(conds, clause)
		args = append(args, predArgs...)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of the users visible through pred
func (s *Store) List(ctx context.Context, q ListQuery, pred scope.Predicate) (*Page, error) {
	clause, args := where(q.Filter, pred)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	n := len(args)
	query := "SELECT " + userColumns + " FROM users" + clause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	page := &Page{Users: []User{}, Total: total, Page: q.Page, Limit: q.Limit}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		page.Users = append(page.Users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	page.TotalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return page, nil
}

// Stats counts the users visible through pred by role
func (s *Store) Stats(ctx context.Context, f Filter, pred scope.Predicate) (*Stats, error) {
	clause, args := where(f, pred)
	rows, err := s.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM users"+clause+" GROUP BY role ORDER BY role", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByRole: map[string]int64{}}
	for rows.Next() {
		var (
			role  string
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats.ByRole[role] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

// Get loads a single user
func (s *Store) Get(ctx context.Context, userID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return u, nil
}

// SetStatus updates a user's account status
func (s *Store) SetStatus(ctx context.Context, userID int64, status string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET status = $2 WHERE id = $1", userID, status)
	if err != nil {
		return fmt.Errorf("failed to update status for user %d: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*User, error) {
	var (
		u          User
		role       string
		cc         sql.NullString
		zone, ward sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &role, &cc, &zone, &ward, &u.Status, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.CityCorporationCode = cc.String
	if zone.Valid {
		u.ZoneID = &zone.Int64
	}
	if ward.Valid {
		u.WardID = &ward.Int64
	}
	return &u, nil
}
