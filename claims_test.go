package adminauth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	adminauth "github.com/goliatone/go-admin-auth"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	t.Run("principal id falls back to subject", func(t *testing.T) {
		claims := &adminauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		}
		assert.Equal(t, "subject-id", claims.PrincipalID())

		claims.PID = "explicit-id"
		assert.Equal(t, "explicit-id", claims.PrincipalID())
	})

	t.Run("has role is exact", func(t *testing.T) {
		claims := &adminauth.JWTClaims{PrincipalRole: adminauth.RoleSubAdmin}

		assert.True(t, claims.HasRole(adminauth.RoleSubAdmin))
		assert.False(t, claims.HasRole(adminauth.RoleSuperAdmin))
		assert.False(t, claims.HasRole(""))
	})

	t.Run("capabilities resolve through the role table", func(t *testing.T) {
		super := &adminauth.JWTClaims{PrincipalRole: adminauth.RoleSuperAdmin}
		sub := &adminauth.JWTClaims{PrincipalRole: adminauth.RoleSubAdmin}

		assert.True(t, super.HasCapability(adminauth.CapManageAdmins))
		assert.True(t, super.HasCapability(adminauth.CapSelfRead))

		assert.True(t, sub.HasCapability(adminauth.CapSelfRead))
		assert.False(t, sub.HasCapability(adminauth.CapManageAdmins))
		assert.False(t, sub.HasCapability(adminauth.CapReviewRequests))
		assert.False(t, sub.HasCapability(adminauth.CapRegisterAccounts))
	})

	t.Run("unknown role has no capabilities", func(t *testing.T) {
		claims := &adminauth.JWTClaims{PrincipalRole: "auditor"}
		assert.False(t, claims.HasCapability(adminauth.CapSelfRead))
	})

	t.Run("zero times for unset registered claims", func(t *testing.T) {
		claims := &adminauth.JWTClaims{}
		assert.True(t, claims.Expires().IsZero())
		assert.True(t, claims.IssuedAt().IsZero())
	})
}

func TestRoleTable(t *testing.T) {
	assert.True(t, adminauth.IsValidRole(adminauth.RoleSuperAdmin))
	assert.True(t, adminauth.IsValidRole(adminauth.RoleSubAdmin))
	assert.False(t, adminauth.IsValidRole("owner"))

	role, ok := adminauth.ParseRole("subAdmin")
	assert.True(t, ok)
	assert.Equal(t, adminauth.RoleSubAdmin, role)

	_, ok = adminauth.ParseRole("neither")
	assert.False(t, ok)

	assert.ElementsMatch(t, []adminauth.Capability{
		adminauth.CapSelfRead,
		adminauth.CapRegisterAccounts,
		adminauth.CapReviewRequests,
		adminauth.CapManageAdmins,
	}, adminauth.RoleCapabilities(adminauth.RoleSuperAdmin))

	assert.ElementsMatch(t, []adminauth.Capability{
		adminauth.CapSelfRead,
	}, adminauth.RoleCapabilities(adminauth.RoleSubAdmin))

	assert.Nil(t, adminauth.RoleCapabilities("owner"))
}
