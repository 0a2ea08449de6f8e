package enums

import "fmt"

// AuditAction names the mutation a principal attempted.
type AuditAction string

const (
	AuditActionCreate          AuditAction = "CREATE"
	AuditActionUpdate          AuditAction = "UPDATE"
	AuditActionDelete          AuditAction = "DELETE"
	AuditActionRequestApproval AuditAction = "REQUEST_APPROVAL"
	AuditActionApprove         AuditAction = "APPROVE"
	AuditActionReject          AuditAction = "REJECT"
)

// AuditEntityType names the resource kind an audit event targets.
type AuditEntityType string

const (
	AuditEntityJobOrder    AuditEntityType = "JOB_ORDER"
	AuditEntityCatalogItem AuditEntityType = "CATALOG_ITEM"
	AuditEntityPricingRule AuditEntityType = "PRICING_RULE"
	AuditEntityCustomer    AuditEntityType = "CUSTOMER"
	AuditEntityVehicle     AuditEntityType = "VEHICLE"
	AuditEntityBranch      AuditEntityType = "BRANCH"
)

var validAuditEntityTypes = []AuditEntityType{
	AuditEntityJobOrder,
	AuditEntityCatalogItem,
	AuditEntityPricingRule,
	AuditEntityCustomer,
	AuditEntityVehicle,
	AuditEntityBranch,
}

// ParseAuditEntityType converts raw input into an AuditEntityType.
func ParseAuditEntityType(value string) (AuditEntityType, error) {
	for _, candidate := range validAuditEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown audit entity type %q", value)
}

// AuditOutcome records whether the attempted mutation succeeded.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailed  AuditOutcome = "failed"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string { return string(a) }

// String implements fmt.Stringer.
func (e AuditEntityType) String() string { return string(e) }

// String implements fmt.Stringer.
func (o AuditOutcome) String() string { return string(o) }
