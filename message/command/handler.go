package command

import (
	"context"

	"boxoffice/entities"
)

type TicketsRepository interface {
	CancelUnused(ctx context.Context, paymentID string, reason entities.ReconciliationReason) ([]entities.Ticket, error)
}

type Handler struct {
	ticketsRepo TicketsRepository
}

func NewHandler(ticketsRepo TicketsRepository) Handler {
	if ticketsRepo == nil {
		panic("ticketsRepo is required")
	}

	return Handler{
		ticketsRepo: ticketsRepo,
	}
}
