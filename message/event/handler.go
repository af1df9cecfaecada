package event

import (
	"context"

	"boxoffice/entities"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
)

type TicketsRepository interface {
	Details(ctx context.Context, codes []string) ([]entities.TicketDetails, error)
}

type ArtifactRenderer interface {
	RenderTicket(ctx context.Context, ticket entities.TicketDetails) (entities.Artifact, error)
}

type Mailer interface {
	Send(ctx context.Context, mail entities.Mail) error
}

type AuditLog interface {
	Add(ctx context.Context, entry entities.AuditEntry) error
}

type Handler struct {
	ticketsRepo TicketsRepository
	renderer    ArtifactRenderer
	mailer      Mailer
	eventBus    *cqrs.EventBus
	commandBus  *cqrs.CommandBus
}

func NewHandler(
	ticketsRepo TicketsRepository,
	renderer ArtifactRenderer,
	mailer Mailer,
	eventBus *cqrs.EventBus,
	commandBus *cqrs.CommandBus,
) Handler {
	if ticketsRepo == nil {
		panic("missing ticketsRepo")
	}
	if renderer == nil {
		panic("missing renderer")
	}
	if mailer == nil {
		panic("missing mailer")
	}
	if eventBus == nil {
		panic("missing eventBus")
	}
	if commandBus == nil {
		panic("missing commandBus")
	}

	return Handler{
		ticketsRepo: ticketsRepo,
		renderer:    renderer,
		mailer:      mailer,
		eventBus:    eventBus,
		commandBus:  commandBus,
	}
}
