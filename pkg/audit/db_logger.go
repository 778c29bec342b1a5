package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DBLogger writes events to the activity_logs table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger. The activity_logs
// table is created by the schema migrations.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

const insertActivityLog = `
	INSERT INTO activity_logs (
		actor_id, action, entity_type, entity_id,
		old_value, new_value, ip_address, user_agent, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

// Log inserts event and sets its ID
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	oldValue, err := marshalValue(event.OldValue)
	if err != nil {
		return fmt.Errorf("failed to marshal old value: %w", err)
	}
	newValue, err := marshalValue(event.NewValue)
	if err != nil {
		return fmt.Errorf("failed to marshal new value: %w", err)
	}

	err = l.db.QueryRowContext(ctx, insertActivityLog,
		event.ActorID, string(event.Action), string(event.EntityType), event.EntityID,
		oldValue, newValue, nullString(event.IPAddress), nullString(event.UserAgent), event.Timestamp,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// Close is a no-op; the database handle is owned by the caller
func (l *DBLogger) Close() error {
	return nil
}

// marshalValue encodes v as JSON, keeping nil as SQL NULL
func marshalValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
