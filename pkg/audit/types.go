package audit

import "time"

// Action names the change being recorded
type Action string

const (
	ActionAssignZones           Action = "ASSIGN_ZONES"
	ActionUpdateZoneAssignments Action = "UPDATE_ZONE_ASSIGNMENTS"
	ActionRemoveZone            Action = "REMOVE_ZONE"
	ActionUpdatePermissions     Action = "UPDATE_PERMISSIONS"
	ActionUpdateUserStatus      Action = "UPDATE_USER_STATUS"
)

// EntityType names the kind of record an event is about
type EntityType string

const (
	EntityTypeUser EntityType = "USER"
)

// Event is a single activity log entry. OldValue and NewValue are stored as
// JSON and may be nil.
type Event struct {
	ID         int64       `json:"id,omitempty"`
	ActorID    int64       `json:"actorId"`
	Action     Action      `json:"action"`
	EntityType EntityType  `json:"entityType"`
	EntityID   int64       `json:"entityId"`
	OldValue   interface{} `json:"oldValue,omitempty"`
	NewValue   interface{} `json:"newValue,omitempty"`
	IPAddress  string      `json:"ipAddress,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
