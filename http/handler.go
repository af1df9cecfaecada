package http

import (
	"context"

	"boxoffice/entities"
	"boxoffice/orders"

	"github.com/google/uuid"
)

type Handler struct {
	orders          OrderService
	events          EventRepository
	tiers           TierRepository
	orderRepo       OrderRepository
	tickets         TicketRepository
	reconciliations ReconciliationRepository
	commandBus      CommandBus
}

type OrderService interface {
	CreateOrder(ctx context.Context, email string, lines []orders.OrderLine) (entities.Checkout, error)
	FulfillOrder(ctx context.Context, paymentID string) (entities.FulfillmentResult, error)
}

type EventRepository interface {
	Create(ctx context.Context, event entities.Event) (entities.EventCreateResponse, error)
	EventByID(ctx context.Context, eventID uuid.UUID) (entities.Event, error)
	List(ctx context.Context) ([]entities.Event, error)
}

type TierRepository interface {
	Create(ctx context.Context, tier entities.Tier) (entities.Tier, error)
	TiersByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.Tier, error)
	Update(ctx context.Context, tierID uuid.UUID, update entities.TierUpdate) (entities.Tier, error)
}

type OrderRepository interface {
	ByPaymentID(ctx context.Context, paymentID string) (entities.Order, error)
}

type TicketRepository interface {
	Validate(ctx context.Context, code string) (entities.RedemptionResult, error)
	ByPaymentID(ctx context.Context, paymentID string) ([]entities.Ticket, error)
}

type ReconciliationRepository interface {
	List(ctx context.Context) ([]entities.Reconciliation, error)
	ByPaymentID(ctx context.Context, paymentID string) ([]entities.Reconciliation, error)
}

type CommandBus interface {
	Send(ctx context.Context, cmd any) error
}
