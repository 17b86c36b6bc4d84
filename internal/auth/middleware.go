package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// CookieName carries the session token for browser clients.
	CookieName = "authorization"

	msgAuthRequired = "Authorization is required."
	msgAuthInvalid  = "Provided authorization is invalid or has expired."
)

// AccountLoader resolves the account a token was issued for.
type AccountLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// AuthMiddleware validates bearer tokens and loads the calling account.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts AccountLoader
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts AccountLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := extractToken(c)
	if raw == "" {
		return apperrors.NewUnauthorized(msgAuthRequired)
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized(msgAuthInvalid)
	}

	account, err := m.accounts.GetByID(c.UserContext(), claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized(msgAuthInvalid)
		}
		return apperrors.NewInternalError(err)
	}

	c.Locals(principalKey, account)
	return c.Next()
}

// AccountFromContext retrieves the authenticated account.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	account, ok := val.(*domain.Account)
	return account, ok && account != nil
}

// extractToken reads the Authorization header first, then the cookie. Both
// accept an optional "Bearer " scheme prefix.
func extractToken(c *fiber.Ctx) string {
	value := c.Get(fiber.HeaderAuthorization)
	if value == "" {
		value = c.Cookies(CookieName)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	parts := strings.SplitN(value, " ", 2)
	if len(parts) == 2 {
		if !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return value
}
