package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/export"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// SupportsHandler manages support ticket endpoints.
type SupportsHandler struct {
	service *service.TicketService
	history *service.HistoryService
}

// NewSupportsHandler constructs handler.
func NewSupportsHandler(ticketService *service.TicketService, historyService *service.HistoryService) *SupportsHandler {
	return &SupportsHandler{service: ticketService, history: historyService}
}

// Create handles POST /supports.
func (h *SupportsHandler) Create(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), account, req.Subject, req.Message)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, dto.NewTicketResponse(ticket))
}

// List handles GET /supports.
func (h *SupportsHandler) List(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), account)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewTicketResponses(tickets))
}

// Get handles GET /supports/:id.
func (h *SupportsHandler) Get(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewTicketResponse(ticket))
}

// History handles GET /supports/:id/history.
func (h *SupportsHandler) History(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	entries, err := h.history.List(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewHistoryResponses(entries))
}

// Comment handles POST /supports/:id.
func (h *SupportsHandler) Comment(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Comment(c.UserContext(), account, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewTicketResponse(ticket))
}

// Close handles PATCH /supports/:id.
func (h *SupportsHandler) Close(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, dto.NewTicketResponse(ticket))
}

// Delete handles DELETE /supports/:id.
func (h *SupportsHandler) Delete(c *fiber.Ctx) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), account, c.Params("id")); err != nil {
		return err
	}
	return sendMessage(c, fiber.StatusOK, service.MsgTicketDeleted)
}

// Export handles GET /supports/export and streams the document as an attachment.
func (h *SupportsHandler) Export(c *fiber.Ctx) error {
	var q dto.ExportQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewBadRequest("Invalid query parameters")
	}

	doc, err := h.service.Export(c.UserContext(), export.Query{
		Status: q.Status,
		Start:  q.Start,
		End:    q.End,
		Type:   q.Type,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment;filename="+doc.Filename)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(doc.Body)))
	return c.Status(fiber.StatusOK).Send(doc.Body)
}
