package enums

import "fmt"

// JobOrderStatus tracks a job order through its approval lifecycle.
// Transitions only move forward: created -> pending_approval -> approved or
// rejected. The terminal states never change again.
type JobOrderStatus string

const (
	JobOrderStatusCreated         JobOrderStatus = "created"
	JobOrderStatusPendingApproval JobOrderStatus = "pending_approval"
	JobOrderStatusApproved        JobOrderStatus = "approved"
	JobOrderStatusRejected        JobOrderStatus = "rejected"
)

var validJobOrderStatuses = []JobOrderStatus{
	JobOrderStatusCreated,
	JobOrderStatusPendingApproval,
	JobOrderStatusApproved,
	JobOrderStatusRejected,
}

// String implements fmt.Stringer.
func (s JobOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known JobOrderStatus.
func (s JobOrderStatus) IsValid() bool {
	for _, candidate := range validJobOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s JobOrderStatus) IsTerminal() bool {
	return s == JobOrderStatusApproved || s == JobOrderStatusRejected
}

// ParseJobOrderStatus converts raw input into a JobOrderStatus.
func ParseJobOrderStatus(value string) (JobOrderStatus, error) {
	for _, candidate := range validJobOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job order status %q", value)
}
