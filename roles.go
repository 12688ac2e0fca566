package adminauth

// Capability names a privileged operation a role may invoke. The guard checks
// capability membership rather than role equality so adding a tier is a table
// edit, not new branching.
type Capability = string

const (
	// CapSelfRead read own projection
	CapSelfRead Capability = "self:read"
	// CapRegisterAccounts provision new accounts
	CapRegisterAccounts Capability = "accounts:register"
	// CapReviewRequests approve or reject pending accounts
	CapReviewRequests Capability = "requests:review"
	// CapManageAdmins list, toggle, and delete sub admin accounts
	CapManageAdmins Capability = "admins:manage"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleSuperAdmin: {
		CapSelfRead:         {},
		CapRegisterAccounts: {},
		CapReviewRequests:   {},
		CapManageAdmins:     {},
	},
	RoleSubAdmin: {
		CapSelfRead: {},
	},
}

// IsValidRole checks the role against the predefined tiers
func IsValidRole(r Role) bool {
	_, ok := roleCapabilities[r]
	return ok
}

// RoleCan reports whether the role's capability set includes the capability.
func RoleCan(r Role, capability Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// RoleCapabilities returns a copy of the role's capability set.
func RoleCapabilities(r Role) []Capability {
	caps, ok := roleCapabilities[r]
	if !ok {
		return nil
	}
	out := make([]Capability, 0, len(caps))
	for c := range caps {
		out = append(out, c)
	}
	return out
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}
