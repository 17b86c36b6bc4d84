package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository/repotest"
	"github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *repotest.Accounts, *auth.TokenManager) {
	t.Helper()

	accounts := repotest.NewAccounts()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(config.AuthConfig{BcryptCost: 4}, accounts, tokens)
	return svc, accounts, tokens
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, tokens := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, AccountInput{
		FirstName: " John ",
		LastName:  "Doe",
		Email:     "john.doe@aol.com",
		Password:  "sec123RET",
		Role:      domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, session.Account.Role, "signup never grants elevated roles")
	assert.Equal(t, "John", session.Account.FirstName)
	assert.NotEqual(t, "sec123RET", session.Account.PasswordHash)

	claims, err := tokens.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, claims.AccountID)

	loggedIn, err := svc.Login(ctx, "john.doe@aol.com", "sec123RET")
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, loggedIn.Account.ID)

	for _, creds := range [][2]string{{"john.doe@aol.com", "wrong-pass"}, {"nobody@aol.com", "sec123RET"}} {
		_, err = svc.Login(ctx, creds[0], creds[1])
		de := errorutil.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
		assert.Equal(t, "Invalid email address or password.", de.Message)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, accounts, _ := newAuthService(t)
	accounts.Seed("Janet", "Doe", "janet.doe@aol.com", domain.RoleUser)

	_, err := svc.Signup(context.Background(), AccountInput{
		FirstName: "Janet", LastName: "Again", Email: "janet.doe@aol.com", Password: "sec123RET",
	})
	de := errorutil.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Fields, "email")
}

func TestCreateAccountRole(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	agent, err := svc.CreateAccount(ctx, AccountInput{
		FirstName: "Peter", LastName: "Pan", Email: "peter.pan@aol.com", Password: "sec123RET", Role: domain.RoleAgent,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, agent.Role)

	_, err = svc.CreateAccount(ctx, AccountInput{
		FirstName: "X", LastName: "Y", Email: "x@aol.com", Password: "sec123RET", Role: "owner",
	})
	de := errorutil.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Fields, "role")
}

func TestAccountLookupAndDelete(t *testing.T) {
	t.Parallel()

	svc, accounts, _ := newAuthService(t)
	ctx := context.Background()
	john := accounts.Seed("John", "Doe", "john.doe@aol.com", domain.RoleUser)
	accounts.Seed("Peter", "Pan", "peter.pan@aol.com", domain.RoleAgent)

	list, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := svc.GetAccount(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, "john.doe@aol.com", got.Email)

	require.NoError(t, svc.DeleteAccount(ctx, john.ID))

	for _, id := range []string{john.ID, "not-an-id"} {
		_, err = svc.GetAccount(ctx, id)
		de := errorutil.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
		assert.Equal(t, "User not found", de.Message)
	}

	de := errorutil.ToDomainError(svc.DeleteAccount(ctx, john.ID))
	require.NotNil(t, de)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	t.Parallel()

	svc, accounts, _ := newAuthService(t)
	accounts.Err = errStoreDown

	_, err := svc.Login(context.Background(), "john.doe@aol.com", "sec123RET")
	de := errorutil.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}
