package enums

import "fmt"

// ActivationStatus marks whether a catalog item or pricing rule is in force.
// Inactive rows are kept for history; deletes that would break references
// degrade to this status instead.
type ActivationStatus string

const (
	ActivationStatusActive   ActivationStatus = "active"
	ActivationStatusInactive ActivationStatus = "inactive"
)

var validActivationStatuses = []ActivationStatus{
	ActivationStatusActive,
	ActivationStatusInactive,
}

// String implements fmt.Stringer.
func (s ActivationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ActivationStatus.
func (s ActivationStatus) IsValid() bool {
	for _, candidate := range validActivationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseActivationStatus converts raw input into an ActivationStatus.
func ParseActivationStatus(value string) (ActivationStatus, error) {
	for _, candidate := range validActivationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", value)
}
