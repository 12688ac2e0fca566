package adminauth_test

import (
	"context"
	"testing"

	adminauth "github.com/goliatone/go-admin-auth"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterPrincipalBootstrap(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "first@example.com", "first").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(0, nil).Once()
	principals.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *adminauth.Principal) bool {
		return p.Role == adminauth.RoleSuperAdmin &&
			p.RequestStatus == adminauth.StatusApproved &&
			p.CreatedByID == nil &&
			p.IsActive &&
			p.CredentialDigest != "" &&
			p.CredentialDigest != "hunter22"
	})).Return(&adminauth.Principal{
		ID:            uuid.New(),
		Username:      "first",
		Email:         "first@example.com",
		Role:          adminauth.RoleSuperAdmin,
		RequestStatus: adminauth.StatusApproved,
		IsActive:      true,
	}, nil).Once()

	sink := &MockActivitySink{}
	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt adminauth.ActivityEvent) bool {
		return evt.EventType == adminauth.ActivityEventBootstrapCompleted &&
			evt.Actor.Type == "system"
	})).Return(nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther).WithActivitySink(sink)

	var response *adminauth.RegisterPrincipalResponse
	err := handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "first",
		Email:    "first@example.com",
		Secret:   "hunter22",
		Role:     "subAdmin",
		OnResponse: func(r *adminauth.RegisterPrincipalResponse) {
			response = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, response)
	assert.True(t, response.IsBootstrap)
	assert.Equal(t, adminauth.RoleSuperAdmin, response.Principal.Role)

	principals.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRegisterPrincipalDuplicateIdentity(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "sub@example.com", "subadmin").
		Return(newSubAdmin(adminauth.StatusApproved, true, ""), nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	err := handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "subadmin",
		Email:    "sub@example.com",
		Secret:   "hunter22",
	})
	assert.ErrorIs(t, err, adminauth.ErrDuplicateIdentity)
	principals.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPrincipalRequiresToken(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "new@example.com", "newcomer").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(3, nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	err := handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "newcomer",
		Email:    "new@example.com",
		Secret:   "hunter22",
	})
	assert.ErrorIs(t, err, adminauth.ErrAuthenticationFailed)
	principals.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPrincipalRejectsBadToken(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "new@example.com", "newcomer").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(3, nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	err := handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "newcomer",
		Email:    "new@example.com",
		Secret:   "hunter22",
		RawToken: "not.a.token",
	})
	assert.ErrorIs(t, err, adminauth.ErrAuthenticationFailed)
}

func TestRegisterPrincipalSubAdminCreation(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	creator := newSuperAdmin("")
	token, err := auther.TokenService().Generate(adminauth.NewIdentityFromPrincipal(creator))
	require.NoError(t, err)

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "new@example.com", "newcomer").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(3, nil).Once()
	principals.On("GetByIDAndRoleTx", mock.Anything, mock.Anything, creator.ID, adminauth.RoleSuperAdmin).
		Return(creator, nil).Once()
	principals.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *adminauth.Principal) bool {
		return p.Role == adminauth.RoleSubAdmin &&
			p.RequestStatus == adminauth.StatusPending &&
			p.CreatedByID != nil &&
			*p.CreatedByID == creator.ID
	})).Return(&adminauth.Principal{
		ID:            uuid.New(),
		Username:      "newcomer",
		Email:         "new@example.com",
		Role:          adminauth.RoleSubAdmin,
		RequestStatus: adminauth.StatusPending,
		IsActive:      true,
		CreatedByID:   &creator.ID,
	}, nil).Once()

	sink := &MockActivitySink{}
	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt adminauth.ActivityEvent) bool {
		return evt.EventType == adminauth.ActivityEventPrincipalCreated &&
			evt.Actor.ID == creator.ID.String() &&
			evt.ToStatus == adminauth.StatusPending
	})).Return(nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther).WithActivitySink(sink)

	var response *adminauth.RegisterPrincipalResponse
	err = handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "newcomer",
		Email:    "new@example.com",
		Secret:   "hunter22",
		Role:     "superAdmin",
		RawToken: token,
		OnResponse: func(r *adminauth.RegisterPrincipalResponse) {
			response = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, response)
	assert.False(t, response.IsBootstrap)
	// requested role is discarded; provisioning always produces a sub admin
	assert.Equal(t, adminauth.RoleSubAdmin, response.Principal.Role)

	principals.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRegisterPrincipalCallerMustBeSuperAdmin(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	caller := newSubAdmin(adminauth.StatusApproved, true, "")
	token, err := auther.TokenService().Generate(adminauth.NewIdentityFromPrincipal(caller))
	require.NoError(t, err)

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "new@example.com", "newcomer").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(3, nil).Once()
	principals.On("GetByIDAndRoleTx", mock.Anything, mock.Anything, caller.ID, adminauth.RoleSuperAdmin).
		Return(nil, notFoundErr(caller.ID)).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	err = handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username: "newcomer",
		Email:    "new@example.com",
		Secret:   "hunter22",
		RawToken: token,
	})
	assert.ErrorIs(t, err, adminauth.ErrSuperAdminOnly)
	principals.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPrincipalHashidID(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	expectedID, err := hashid.NewUUID("first@example.com")
	require.NoError(t, err)

	principals.On("GetByEmailOrUsernameTx", mock.Anything, mock.Anything, "first@example.com", "first").
		Return(nil, notFoundErr(uuid.New())).Once()
	principals.On("CountTx", mock.Anything, mock.Anything).Return(0, nil).Once()
	principals.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(p *adminauth.Principal) bool {
		return p.ID == expectedID
	})).Return(&adminauth.Principal{ID: expectedID, Role: adminauth.RoleSuperAdmin}, nil).Once()

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	err = handler.Execute(context.Background(), adminauth.RegisterPrincipalMessage{
		Username:  "first",
		Email:     "first@example.com",
		Secret:    "hunter22",
		UseHashid: true,
	})
	require.NoError(t, err)
	principals.AssertExpectations(t)
}

func TestRegisterPrincipalCancelledContext(t *testing.T) {
	principals := &MockPrincipals{}
	repo := mockRepoManager{principals: principals}
	auther := adminauth.NewAuthenticator(principals, testConfig())

	handler := adminauth.NewRegisterPrincipalHandler(repo, auther)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, adminauth.RegisterPrincipalMessage{
		Username: "first",
		Email:    "first@example.com",
		Secret:   "hunter22",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	principals.AssertNotCalled(t, "GetByEmailOrUsernameTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
