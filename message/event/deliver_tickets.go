package event

import (
	"context"
	"errors"
	"fmt"

	"boxoffice/entities"
	"boxoffice/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

// DeliverTickets renders one artifact per ticket and mails them to the buyer in
// one message. A ticket that can't ever be rendered cancels the order's tickets.
func (h Handler) DeliverTickets(ctx context.Context, event *entities.TicketsIssued_v1) error {
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_id": event.PaymentID,
		"tickets":    len(event.TicketCodes),
	})
	logger.Info("Delivering tickets")

	details, err := h.ticketsRepo.Details(ctx, event.TicketCodes)
	if err != nil {
		return fmt.Errorf("failed to get ticket details: %w", err)
	}

	artifacts := make([]entities.Artifact, 0, len(details))
	for _, ticket := range details {
		if ticket.RevokedAt != nil {
			continue
		}

		artifact, err := h.renderer.RenderTicket(ctx, ticket)
		var permanent entities.PermanentError
		if errors.As(err, &permanent) {
			logger.WithError(err).WithField("code", ticket.Code).Error("Ticket can't be rendered, cancelling order tickets")

			return h.commandBus.Send(ctx, entities.CancelOrderTickets_v1{
				Header:    entities.NewEventHeaderWithIdempotencyKey("artifact-failed-" + event.PaymentID),
				PaymentID: event.PaymentID,
				Reason:    entities.ReconciliationArtifactFailed,
			})
		}
		if err != nil {
			return fmt.Errorf("failed to render ticket %s: %w", ticket.Code, err)
		}

		artifacts = append(artifacts, artifact)
	}

	if len(artifacts) == 0 {
		logger.Info("No tickets left to deliver")
		return nil
	}

	err = h.mailer.Send(ctx, entities.Mail{
		To:          event.Email,
		Subject:     "Your tickets",
		HTML:        deliveryMailBody(len(artifacts)),
		Attachments: artifacts,
	})
	if err != nil {
		metrics.TicketDeliveries.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to send tickets to %s: %w", event.Email, err)
	}
	metrics.TicketDeliveries.WithLabelValues("sent").Inc()

	return h.eventBus.Publish(ctx, entities.TicketsDelivered_v1{
		Header:      entities.NewEventHeaderWithIdempotencyKey(event.Header.IdempotencyKey),
		PaymentID:   event.PaymentID,
		Email:       event.Email,
		TicketCodes: event.TicketCodes,
	})
}

func deliveryMailBody(tickets int) string {
	if tickets == 1 {
		return "<p>Thanks for your order! Your ticket is attached, show its QR code at the entrance.</p>"
	}
	return fmt.Sprintf("<p>Thanks for your order! Your %d tickets are attached, show their QR codes at the entrance.</p>", tickets)
}
