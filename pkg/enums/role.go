package enums

import "fmt"

// Role represents a position-level permissions role carried by a principal.
// HM is the super-role: it bypasses branch scoping and is the only role that
// may manage global catalog items.
type Role string

const (
	RoleHeadManager    Role = "HM"
	RolePointOfContact Role = "POC"
	RoleJobSupervisor  Role = "JS"
	RoleReceptionist   Role = "R"
	RoleTechnician     Role = "T"
)

var validRoles = []Role{
	RoleHeadManager,
	RolePointOfContact,
	RoleJobSupervisor,
	RoleReceptionist,
	RoleTechnician,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
