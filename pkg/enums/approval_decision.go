package enums

import "fmt"

// ApprovalDecision is the outcome a reviewer records on a pending job order.
type ApprovalDecision string

const (
	ApprovalDecisionApproved ApprovalDecision = "approved"
	ApprovalDecisionRejected ApprovalDecision = "rejected"
)

// String implements fmt.Stringer.
func (d ApprovalDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known ApprovalDecision.
func (d ApprovalDecision) IsValid() bool {
	return d == ApprovalDecisionApproved || d == ApprovalDecisionRejected
}

// ParseApprovalDecision converts raw input into an ApprovalDecision.
func ParseApprovalDecision(value string) (ApprovalDecision, error) {
	switch ApprovalDecision(value) {
	case ApprovalDecisionApproved:
		return ApprovalDecisionApproved, nil
	case ApprovalDecisionRejected:
		return ApprovalDecisionRejected, nil
	}
	return "", fmt.Errorf("invalid approval decision %q", value)
}
