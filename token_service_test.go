package adminauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	adminauth "github.com/goliatone/go-admin-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdentity implements adminauth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")
	tokenExpiration := 24
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	t.Run("creates token service with logger", func(t *testing.T) {
		logger := &MockLogger{}

		service := adminauth.NewTokenService(signingKey, tokenExpiration, issuer, audience, logger)

		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		service := adminauth.NewTokenService(signingKey, tokenExpiration, issuer, audience, nil)

		assert.NotNil(t, service)
	})
}

func TestTokenServiceGenerate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := adminauth.NewTokenService(signingKey, 24, issuer, audience, nil)

	t.Run("generates a signed token binding id and role", func(t *testing.T) {
		id := uuid.NewString()
		identity := &MockIdentity{}
		identity.On("ID").Return(id)
		identity.On("Role").Return(adminauth.RoleSuperAdmin)

		tokenString, err := service.Generate(identity)

		require.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &adminauth.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		require.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*adminauth.JWTClaims)
		require.True(t, ok)
		assert.Equal(t, id, claims.Subject())
		assert.Equal(t, id, claims.PrincipalID())
		assert.Equal(t, adminauth.RoleSuperAdmin, claims.Role())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)

		identity.AssertExpectations(t)
	})

	t.Run("expiry tracks the configured hours", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return(uuid.NewString())
		identity.On("Role").Return(adminauth.RoleSubAdmin)

		tokenString, err := service.Generate(identity)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		lifetime := claims.Expires().Sub(claims.IssuedAt())
		assert.Equal(t, 24*time.Hour, lifetime)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := adminauth.NewTokenService(signingKey, 24, issuer, audience, nil)

	makeToken := func(t *testing.T, key []byte, expiresAt time.Time) string {
		t.Helper()
		claims := &adminauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   uuid.NewString(),
				Audience:  audience,
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			PrincipalRole: adminauth.RoleSubAdmin,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}

	t.Run("accepts a valid token", func(t *testing.T) {
		raw := makeToken(t, signingKey, time.Now().Add(time.Hour))

		claims, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, adminauth.RoleSubAdmin, claims.Role())
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		raw := makeToken(t, signingKey, time.Now().Add(-time.Hour))

		claims, err := service.Validate(raw)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, adminauth.ErrTokenExpired)
		assert.True(t, adminauth.IsTokenExpiredError(err))
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		raw := makeToken(t, []byte("some-other-key"), time.Now().Add(time.Hour))

		claims, err := service.Validate(raw)
		assert.Nil(t, claims)
		assert.True(t, adminauth.IsMalformedError(err))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		claims, err := service.Validate("definitely.not.a.token")
		assert.Nil(t, claims)
		assert.Error(t, err)
	})

	t.Run("rejects an empty string", func(t *testing.T) {
		claims, err := service.Validate("")
		assert.Nil(t, claims)
		assert.Error(t, err)
	})
}

func TestSignClaims(t *testing.T) {
	service := adminauth.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil, nil)

	t.Run("rejects nil claims", func(t *testing.T) {
		_, err := service.SignClaims(nil)
		assert.Error(t, err)
	})

	t.Run("signs custom claims", func(t *testing.T) {
		claims := &adminauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			PrincipalRole: adminauth.RoleSuperAdmin,
		}

		raw, err := service.SignClaims(claims)
		require.NoError(t, err)

		parsed, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, adminauth.RoleSuperAdmin, parsed.Role())
	})
}
