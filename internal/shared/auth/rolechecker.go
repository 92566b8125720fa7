// Package auth provides the staff-capability predicate checked against an
// actor's platform-role membership.
package auth

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// IsAdmin checks if the actor has the admin role
func IsAdmin(roles []string) bool {
	return HasRole(roles, RoleAdmin)
}

// IsStaff checks if the actor has the staff role. Admins count as staff.
func IsStaff(roles []string) bool {
	return HasRole(roles, RoleStaff) || HasRole(roles, RoleAdmin)
}

// HasRole checks if the actor has a specific role
func HasRole(roles []string, targetRole string) bool {
	for _, role := range roles {
		if role == targetRole {
			return true
		}
	}
	return false
}
