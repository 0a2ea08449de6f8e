package authz

import (
	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// Principal is the authenticated actor derived from the access token. Branch
// assignments are kept as a set for O(1) membership checks.
type Principal struct {
	UserID   uuid.UUID
	Roles    []enums.Role
	branches map[uuid.UUID]struct{}
}

// NewPrincipal builds a principal from token claims.
func NewPrincipal(userID uuid.UUID, roles []enums.Role, branchIDs []uuid.UUID) Principal {
	branches := make(map[uuid.UUID]struct{}, len(branchIDs))
	for _, id := range branchIDs {
		branches[id] = struct{}{}
	}
	return Principal{
		UserID:   userID,
		Roles:    roles,
		branches: branches,
	}
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role enums.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the roles.
func (p Principal) HasAnyRole(roles ...enums.Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

// IsHeadManager reports whether the principal carries the head manager role,
// which bypasses branch scoping everywhere.
func (p Principal) IsHeadManager() bool {
	return p.HasRole(enums.RoleHeadManager)
}

// CanAccessBranch reports whether the principal may operate on resources
// scoped to the given branch. Head managers may operate on any branch.
func (p Principal) CanAccessBranch(branchID uuid.UUID) bool {
	if p.IsHeadManager() {
		return true
	}
	_, ok := p.branches[branchID]
	return ok
}

// AssignedBranchIDs returns the principal's branch assignments. The order is
// not stable.
func (p Principal) AssignedBranchIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.branches))
	for id := range p.branches {
		ids = append(ids, id)
	}
	return ids
}

// CanManageGlobalCatalog reports whether the principal may create, update, or
// delete global catalog items. Only head managers may mutate the global
// catalog; everyone can read it.
func (p Principal) CanManageGlobalCatalog() bool {
	return p.IsHeadManager()
}

// CanViewCatalogItem reports whether the principal may read the catalog item
// identified by its global flag and branch. Global items are visible to all
// authenticated users.
func (p Principal) CanViewCatalogItem(isGlobal bool, branchID *uuid.UUID) bool {
	if isGlobal || branchID == nil {
		return true
	}
	return p.CanAccessBranch(*branchID)
}
