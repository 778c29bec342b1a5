package zones

import "errors"

// ErrUserNotFound is returned when the target user does not exist
var ErrUserNotFound = errors.New("user not found")

// Reason classifies a ValidationError
type Reason string

const (
	ReasonZoneCount       Reason = "zone_count"
	ReasonNotSuperAdmin   Reason = "not_super_admin"
	ReasonZoneNotFound    Reason = "zone_not_found"
	ReasonMixedCity       Reason = "mixed_city_corporation"
	ReasonDuplicateZone   Reason = "duplicate_zone"
	ReasonZoneNotAssigned Reason = "zone_not_assigned"
	ReasonBelowMinimum    Reason = "below_minimum"
)

// ValidationError is an assignment rule violation
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(reason Reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// IsValidationError reports whether err is a rule violation
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
