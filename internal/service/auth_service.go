package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AccountInput describes a new account. Role is ignored on signup.
type AccountInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// Session is the result of a successful signup or login.
type Session struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and account management.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AccountRepository, tokenMgr *auth.TokenManager) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokenMgr:   tokenMgr,
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup registers a user-role account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, in AccountInput) (*Session, error) {
	in.Role = domain.RoleUser
	account, err := s.createAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.openSession(account)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errorutil.NewUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, errorutil.NewUnauthorized(msgInvalidCredentials)
	}
	return s.openSession(account)
}

// CreateAccount registers an account with an explicit role.
func (s *AuthService) CreateAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	if !in.Role.Valid() {
		return nil, errorutil.NewValidationError("Validation failed", map[string]string{
			"role": "role must be one of admin, agent, user",
		})
	}
	return s.createAccount(ctx, in)
}

// ListAccounts returns every account.
func (s *AuthService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return accounts, nil
}

// GetAccount returns one account; malformed ids are reported as not found.
func (s *AuthService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, accountError(err)
	}
	return account, nil
}

// DeleteAccount removes an account. Tickets it owns are left in place.
func (s *AuthService) DeleteAccount(ctx context.Context, id string) error {
	return accountError(s.accounts.Delete(ctx, id))
}

func (s *AuthService) createAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, accountError(repository.ErrDuplicateEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, errorutil.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	account := &domain.Account{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, accountError(err)
	}
	return account, nil
}

func (s *AuthService) openSession(account *domain.Account) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(account.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return &Session{Account: account, Token: token, ExpiresAt: exp}, nil
}
