package adminauth_test

import (
	"context"
	"database/sql"
	"time"

	adminauth "github.com/goliatone/go-admin-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockLogger implements adminauth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

// MockActivitySink implements adminauth.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event adminauth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPrincipals mocks the repository methods exercised by the workflows. The
// embedded interface covers the long tail of generic repository methods the
// tests never touch.
type MockPrincipals struct {
	adminauth.Principals
	mock.Mock
}

func (m *MockPrincipals) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPrincipals) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	args := m.Called(ctx, tx)
	return args.Int(0), args.Error(1)
}

func (m *MockPrincipals) GetByEmail(ctx context.Context, email string) (*adminauth.Principal, error) {
	args := m.Called(ctx, email)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetByEmailOrUsername(ctx context.Context, email, username string) (*adminauth.Principal, error) {
	args := m.Called(ctx, email, username)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*adminauth.Principal, error) {
	args := m.Called(ctx, tx, email, username)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetActiveByID(ctx context.Context, id uuid.UUID) (*adminauth.Principal, error) {
	args := m.Called(ctx, id)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*adminauth.Principal, error) {
	args := m.Called(ctx, id)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetByIDAndRole(ctx context.Context, id uuid.UUID, role adminauth.Role) (*adminauth.Principal, error) {
	args := m.Called(ctx, id, role)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) GetByIDAndRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role adminauth.Role) (*adminauth.Principal, error) {
	args := m.Called(ctx, tx, id, role)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) ListByRoleAndStatus(ctx context.Context, role adminauth.Role, status adminauth.RequestStatus) ([]*adminauth.Principal, error) {
	args := m.Called(ctx, role, status)
	return principalsArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) ListSubAdmins(ctx context.Context) ([]*adminauth.Principal, error) {
	args := m.Called(ctx)
	return principalsArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) Create(ctx context.Context, record *adminauth.Principal, criteria ...repository.InsertCriteria) (*adminauth.Principal, error) {
	args := m.Called(ctx, record)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) CreateTx(ctx context.Context, tx bun.IDB, record *adminauth.Principal, criteria ...repository.InsertCriteria) (*adminauth.Principal, error) {
	args := m.Called(ctx, tx, record)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status adminauth.RequestStatus) (*adminauth.Principal, error) {
	args := m.Called(ctx, id, status)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) SetActive(ctx context.Context, id uuid.UUID, active bool) (*adminauth.Principal, error) {
	args := m.Called(ctx, id, active)
	return principalArg(args.Get(0)), args.Error(1)
}

func (m *MockPrincipals) DeleteSubAdmin(ctx context.Context, id uuid.UUID) (*adminauth.Principal, error) {
	args := m.Called(ctx, id)
	return principalArg(args.Get(0)), args.Error(1)
}

func principalArg(v any) *adminauth.Principal {
	if p, ok := v.(*adminauth.Principal); ok {
		return p
	}
	return nil
}

func principalsArg(v any) []*adminauth.Principal {
	if p, ok := v.([]*adminauth.Principal); ok {
		return p
	}
	return nil
}

// mockRepoManager satisfies RepositoryManager; RunInTx executes the callback
// directly so the mocked repository observes every call.
type mockRepoManager struct {
	principals adminauth.Principals
}

func (m mockRepoManager) Validate() error { return nil }
func (m mockRepoManager) MustValidate()   {}

func (m mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m mockRepoManager) Principals() adminauth.Principals {
	return m.principals
}

func testConfig() *adminauth.BaseConfig {
	return &adminauth.BaseConfig{
		SigningKey:      "test-signing-key",
		SigningMethod:   "HS256",
		ContextKey:      "principal",
		TokenExpiration: 24,
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
		Issuer:          "test-issuer",
		Audience:        []string{"test:audience"},
	}
}

func notFoundErr(id uuid.UUID) error {
	return repository.NewRecordNotFound().WithMetadata(map[string]any{"id": id.String()})
}

func newSubAdmin(status adminauth.RequestStatus, active bool, digest string) *adminauth.Principal {
	now := time.Now()
	return &adminauth.Principal{
		ID:               uuid.New(),
		Username:         "subadmin",
		Email:            "sub@example.com",
		CredentialDigest: digest,
		Role:             adminauth.RoleSubAdmin,
		RequestStatus:    status,
		IsActive:         active,
		CreatedAt:        &now,
	}
}

func newSuperAdmin(digest string) *adminauth.Principal {
	now := time.Now()
	return &adminauth.Principal{
		ID:               uuid.New(),
		Username:         "root",
		Email:            "root@example.com",
		CredentialDigest: digest,
		Role:             adminauth.RoleSuperAdmin,
		RequestStatus:    adminauth.StatusApproved,
		IsActive:         true,
		CreatedAt:        &now,
	}
}
