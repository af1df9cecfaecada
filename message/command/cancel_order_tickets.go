package command

import (
	"context"
	"fmt"

	"boxoffice/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

// CancelOrderTickets revokes the unused tickets of an order and releases their capacity.
func (h Handler) CancelOrderTickets(ctx context.Context, cmd *entities.CancelOrderTickets_v1) error {
	if !cmd.Reason.Compensation() {
		return entities.PermanentError{Err: fmt.Errorf("unknown cancellation reason %q for %s", cmd.Reason, cmd.PaymentID)}
	}

	revoked, err := h.ticketsRepo.CancelUnused(ctx, cmd.PaymentID, cmd.Reason)
	if err != nil {
		return fmt.Errorf("failed to cancel tickets of %s: %w", cmd.PaymentID, err)
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_id": cmd.PaymentID,
		"reason":     cmd.Reason,
		"revoked":    len(revoked),
	}).Info("Order tickets cancelled")

	return nil
}
