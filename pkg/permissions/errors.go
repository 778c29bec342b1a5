package permissions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound = errors.New("User not found")
	// ErrInvalidDocument wraps every structural validation failure
	ErrInvalidDocument = errors.New("Invalid permissions structure")

	ErrTargetNotManageable = errors.New("Super Admins can only manage Admins")
	ErrTargetOutsideZones  = errors.New("User is outside your assigned zones")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
}

// ConflictError rejects a document whose flags contradict each other
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return "permission conflicts detected: " + strings.Join(e.Conflicts, "; ")
}
