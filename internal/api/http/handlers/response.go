package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func sendData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": status, "data": data})
}

func sendMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": status, "message": message})
}

// bind decodes the JSON body into req and validates it.
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return dto.InvalidBody()
	}
	return dto.Validate(req)
}

// currentAccount returns the authenticated account placed by the auth middleware.
func currentAccount(c *fiber.Ctx) (*domain.Account, error) {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Authorization is required.")
	}
	return account, nil
}
