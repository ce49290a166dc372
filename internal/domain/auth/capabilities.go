package auth

// Capability names a logical operation a route may require. The mapping
// from capability to permitted roles is a lookup table, not computed
// policy: new roles or capabilities are additive edits to the table.
type Capability string

const (
	// CapAdminArea gates the admin dashboard surface.
	CapAdminArea Capability = "admin:area"
	// CapManageUsers gates user listing, role changes, and (de)activation.
	CapManageUsers Capability = "users:manage"
	// CapManageContent gates create/update/delete/publish of articles, poems, and issues.
	CapManageContent Capability = "content:manage"
	// CapReviewSubmissions gates the editorial submission queue.
	CapReviewSubmissions Capability = "submissions:review"
	// CapViewNotifications gates the synthesized notification feed.
	CapViewNotifications Capability = "notifications:view"
	// CapCreateSubmissions gates authenticated submission shortcuts in the
	// back office. The public submission endpoint does not require it.
	CapCreateSubmissions Capability = "submissions:create"
)

// capabilityRoles is the static authorization table.
var capabilityRoles = map[Capability][]Role{
	CapAdminArea:         {RoleAdmin},
	CapManageUsers:       {RoleAdmin},
	CapManageContent:     {RoleAdmin, RoleEditor},
	CapReviewSubmissions: {RoleAdmin, RoleEditor},
	CapViewNotifications: {RoleAdmin, RoleEditor},
	CapCreateSubmissions: {RoleAdmin, RoleEditor, RoleContributor},
}

// Allows reports whether role may exercise cap. Unknown capabilities
// permit nothing (fail closed).
func (c Capability) Allows(role Role) bool {
	for _, r := range capabilityRoles[c] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowedRoles returns a copy of the roles permitted to exercise cap.
func (c Capability) AllowedRoles() []Role {
	roles := capabilityRoles[c]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}
