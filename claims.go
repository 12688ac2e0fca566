package adminauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents structured JWT claims with capability checking
type AuthClaims interface {
	Subject() string
	PrincipalID() string
	Role() string
	HasRole(role string) bool
	HasCapability(capability Capability) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	PID           string `json:"pid,omitempty"`
	PrincipalRole string `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// PrincipalID returns the principal id, falling back to the subject
func (c *JWTClaims) PrincipalID() string {
	if c.PID != "" {
		return c.PID
	}
	return c.Subject()
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.PrincipalRole
}

// HasRole checks the role claim against an exact role
func (c *JWTClaims) HasRole(role string) bool {
	return c.PrincipalRole == role
}

// HasCapability resolves the role claim through the capability table. Note
// the claim alone is never sufficient for a protected operation; the guard
// re-resolves the principal from the repository on every request.
func (c *JWTClaims) HasCapability(capability Capability) bool {
	return RoleCan(Role(c.PrincipalRole), capability)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
