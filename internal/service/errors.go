package service

import (
	"errors"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/export"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	msgInvalidCredentials = "Invalid email address or password."
	msgUserNotFound       = "User not found"
	msgEmailTaken         = "Email address is already in use"
	msgTicketNotFound     = "Support item not found"
	msgAlreadyClosed      = "Support item already closed"
	msgCommentDenied      = "You are not permitted to add comment"

	// MsgUserDeleted and MsgTicketDeleted confirm successful deletes.
	MsgUserDeleted   = "User deleted successfully."
	MsgTicketDeleted = "Support item deleted successfully."
)

// ticketError maps ticket store and lifecycle failures onto client errors.
func ticketError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, domain.ErrTicketNotFound):
		return errorutil.NewNotFound(msgTicketNotFound)
	case errors.Is(err, domain.ErrAlreadyClosed):
		return errorutil.NewBadRequest(msgAlreadyClosed)
	case errors.Is(err, domain.ErrCommentNotPermitted):
		return errorutil.NewBadRequest(msgCommentDenied)
	case errors.Is(err, domain.ErrEmptyField):
		return emptyFieldError(err)
	default:
		return errorutil.NewInternalError(err)
	}
}

// exportError maps export validation failures onto client errors.
func exportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, export.ErrInvalidDate),
		errors.Is(err, export.ErrInvalidStatus),
		errors.Is(err, export.ErrInvalidFormat):
		return errorutil.NewBadRequest(err.Error())
	case errors.Is(err, export.ErrNoTickets):
		return errorutil.NewNotFound(err.Error())
	default:
		return errorutil.NewInternalError(err)
	}
}

// accountError maps account store failures onto client errors.
func accountError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errorutil.NewNotFound(msgUserNotFound)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return errorutil.NewValidationError("Validation failed", map[string]string{"email": msgEmailTaken})
	default:
		return errorutil.NewInternalError(err)
	}
}

// emptyFieldError reports only the fields the domain found blank.
func emptyFieldError(err error) error {
	fields := map[string]string{}
	var blank *domain.EmptyFieldError
	if errors.As(err, &blank) {
		for _, name := range blank.Fields {
			fields[name] = name + " is required"
		}
	}
	return errorutil.NewValidationError("Validation failed", fields)
}
