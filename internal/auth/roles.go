package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const msgForbidden = "You are not permitted to access this resource."

// RequirePermission gates a route on the permission table, keyed by resource
// and the request's HTTP verb.
func RequirePermission(resource Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := AccountFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(msgAuthRequired)
		}
		allowed, err := IsAllowed(resource, c.Method(), account.Role)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !allowed {
			return apperrors.NewForbidden(msgForbidden)
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a previous middleware loaded an account.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AccountFromContext(c); !ok {
			return apperrors.NewUnauthorized(msgAuthRequired)
		}
		return c.Next()
	}
}
