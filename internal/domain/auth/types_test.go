package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), "role %q should be valid", r)
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleEditor))
	assert.True(t, RoleEditor.AtLeast(RoleEditor))
	assert.True(t, RoleContributor.AtLeast(RoleReader))
	assert.False(t, RoleReader.AtLeast(RoleContributor))
	assert.False(t, Role("unknown").AtLeast(RoleReader))
	assert.False(t, RoleAdmin.AtLeast(Role("unknown")))
}

// Capability authorization must be monotonic per route: every role outside
// the allowed set is rejected, every role inside is accepted.
func TestCapabilityAllows(t *testing.T) {
	tests := []struct {
		cap     Capability
		allowed []Role
	}{
		{CapAdminArea, []Role{RoleAdmin}},
		{CapManageUsers, []Role{RoleAdmin}},
		{CapManageContent, []Role{RoleAdmin, RoleEditor}},
		{CapReviewSubmissions, []Role{RoleAdmin, RoleEditor}},
		{CapViewNotifications, []Role{RoleAdmin, RoleEditor}},
		{CapCreateSubmissions, []Role{RoleAdmin, RoleEditor, RoleContributor}},
	}

	for _, tt := range tests {
		allowedSet := make(map[Role]bool, len(tt.allowed))
		for _, r := range tt.allowed {
			allowedSet[r] = true
		}
		for _, r := range Roles() {
			assert.Equal(t, allowedSet[r], tt.cap.Allows(r),
				"capability %q role %q", tt.cap, r)
		}
	}
}

func TestCapabilityAllows_UnknownCapabilityFailsClosed(t *testing.T) {
	assert.False(t, Capability("unknown:thing").Allows(RoleAdmin))
}

func TestCapabilityAllowedRoles_ReturnsCopy(t *testing.T) {
	roles := CapManageContent.AllowedRoles()
	assert.Equal(t, []Role{RoleAdmin, RoleEditor}, roles)

	roles[0] = RoleReader
	assert.Equal(t, []Role{RoleAdmin, RoleEditor}, CapManageContent.AllowedRoles())
}
