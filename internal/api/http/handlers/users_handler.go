package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// UsersHandler exposes account management.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.auth.CreateAccount(c.UserContext(), service.AccountInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, dto.NewUserResponse(account))
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	accounts, err := h.auth.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewUserResponses(accounts))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	account, err := h.auth.GetAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewUserResponse(account))
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.auth.DeleteAccount(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return sendMessage(c, fiber.StatusOK, service.MsgUserDeleted)
}
