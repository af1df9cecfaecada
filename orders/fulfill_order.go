package orders

import (
	"context"
	"errors"
	"fmt"

	"boxoffice/entities"
	"boxoffice/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// FulfillOrder handles a payment notification. The notification carries no
// trust: the payment status is always read back from the gateway. Calling it
// any number of times for the same payment reserves and issues at most once.
func (s *Service) FulfillOrder(ctx context.Context, paymentID string) (entities.FulfillmentResult, error) {
	if paymentID == "" {
		return entities.FulfillmentResult{}, entities.ValidationError{Field: "id", Msg: "payment id is required"}
	}

	// notifications for the same payment arriving at this instance share one run
	v, err, _ := s.flight.Do(paymentID, func() (any, error) {
		unlock, err := s.locker.Lock(ctx, "fulfill:"+paymentID)
		if errors.Is(err, ErrLocked) {
			return entities.FulfillmentResult{}, entities.ConflictError{Msg: fmt.Sprintf("order %s is being fulfilled", paymentID)}
		}
		if err != nil {
			return entities.FulfillmentResult{}, err
		}
		defer unlock()

		return s.fulfill(ctx, paymentID)
	})
	if err != nil {
		return entities.FulfillmentResult{}, err
	}

	result := v.(entities.FulfillmentResult)
	metrics.Fulfillments.WithLabelValues(string(result.Outcome)).Inc()

	return result, nil
}

func (s *Service) fulfill(ctx context.Context, paymentID string) (entities.FulfillmentResult, error) {
	logger := log.FromContext(ctx).WithField("payment_id", paymentID)

	order, err := s.orders.ByPaymentID(ctx, paymentID)
	var notFound entities.NotFoundError
	if errors.As(err, &notFound) {
		logger.Info("Notification for unknown order")
		return rejected(entities.ReasonUnknownOrder), nil
	}
	if err != nil {
		return entities.FulfillmentResult{}, err
	}

	if order.State == entities.OrderFulfilled {
		return entities.FulfillmentResult{Outcome: entities.AlreadyFulfilled}, nil
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return entities.FulfillmentResult{}, err
	}

	if order.State == entities.OrderFailed {
		if payment.Status == entities.PaymentPaid && order.FailureReason == entities.OrderExpired {
			if err := s.undoExpired(ctx, order); err != nil {
				return entities.FulfillmentResult{}, err
			}
		}
		return rejected(entities.ReasonOrderFailed), nil
	}

	if payment.Status != entities.PaymentPaid {
		if order.Expired(s.now(), s.config.OrderTTL) {
			if _, err := s.orders.MarkFailed(ctx, paymentID, entities.OrderExpired); err != nil {
				return entities.FulfillmentResult{}, err
			}
			logger.Info("Order expired before payment")
		}
		logger.WithField("status", payment.Status).Debug("Payment not paid yet")
		return rejected(entities.ReasonPaymentNotPaid), nil
	}

	fulfillment := entities.Fulfillment{Order: order}
	for _, item := range order.Items {
		reservation, err := s.ledger.ReserveForOrder(ctx, paymentID, item.TierID, item.Quantity)
		if err != nil {
			return entities.FulfillmentResult{}, err
		}

		if reservation.Granted > 0 {
			metrics.Reservations.WithLabelValues("granted").Add(float64(reservation.Granted))
		}
		if shortfall := reservation.Shortfall(); shortfall > 0 {
			metrics.Reservations.WithLabelValues("short").Add(float64(shortfall))

			rec := entities.ReconciliationFor(paymentID, reservation)
			fulfillment.Reconciliations = append(fulfillment.Reconciliations, rec)

			logger.WithFields(logrus.Fields{
				"tier_id":   item.TierID,
				"requested": reservation.Requested,
				"granted":   reservation.Granted,
				"reason":    rec.Reason,
			}).Warn("Paid order can't be fully honored, reconciliation required")
		}

		for slot := 0; slot < reservation.Granted; slot++ {
			ticket, err := s.tickets.Issue(ctx, entities.IssueRequest{
				TierID:    item.TierID,
				Email:     order.Email,
				PaymentID: paymentID,
				Slot:      slot,
			})
			if err != nil {
				return entities.FulfillmentResult{}, err
			}
			fulfillment.Tickets = append(fulfillment.Tickets, ticket)
		}
	}

	completed, err := s.orders.Complete(ctx, fulfillment)
	if err != nil {
		return entities.FulfillmentResult{}, err
	}
	if !completed {
		// someone else finished the order in the meantime
		current, err := s.orders.ByPaymentID(ctx, paymentID)
		if err != nil {
			return entities.FulfillmentResult{}, err
		}
		if current.State == entities.OrderFulfilled {
			return entities.FulfillmentResult{Outcome: entities.AlreadyFulfilled}, nil
		}
		// expired while the payment was being checked: what was just issued goes back
		if current.FailureReason == entities.OrderExpired {
			if err := s.undoExpired(ctx, current); err != nil {
				return entities.FulfillmentResult{}, err
			}
		}
		return rejected(entities.ReasonOrderFailed), nil
	}

	metrics.TicketsIssued.Add(float64(len(fulfillment.Tickets)))

	logger.WithFields(logrus.Fields{
		"tickets": len(fulfillment.Tickets),
		"state":   fulfillment.State(),
	}).Info("Order completed")

	if len(fulfillment.Reconciliations) > 0 {
		return entities.FulfillmentResult{
			Outcome:    entities.PartiallyFulfilled,
			Reason:     entities.RejectionReason(fulfillment.Reconciliations[0].Reason),
			Tickets:    fulfillment.Tickets,
			Shortfalls: fulfillment.Reconciliations,
		}, nil
	}

	return entities.FulfillmentResult{
		Outcome: entities.Fulfilled,
		Tickets: fulfillment.Tickets,
	}, nil
}

// undoExpired revokes any ticket issued for an expired order, gives the capacity
// back and records that the buyer paid for nothing.
func (s *Service) undoExpired(ctx context.Context, order entities.Order) error {
	revoked, err := s.tickets.CancelUnused(ctx, order.PaymentID, entities.ReconciliationPaidAfterExpiry)
	if err != nil {
		return err
	}
	if len(revoked) > 0 {
		log.FromContext(ctx).
			WithField("payment_id", order.PaymentID).
			WithField("revoked", len(revoked)).
			Warn("Revoked tickets issued for an expired order")
	}

	return s.paidAfterExpiry(ctx, order)
}

func (s *Service) paidAfterExpiry(ctx context.Context, order entities.Order) error {
	log.FromContext(ctx).
		WithField("payment_id", order.PaymentID).
		Warn("Expired order was paid, reconciliation required")

	return s.reconciliations.Add(ctx, entities.Reconciliation{
		PaymentID: order.PaymentID,
		TierID:    uuid.Nil,
		Requested: lo.SumBy(order.Items, func(i entities.LineItem) int { return i.Quantity }),
		Granted:   0,
		Reason:    entities.ReconciliationPaidAfterExpiry,
	})
}

func rejected(reason entities.RejectionReason) entities.FulfillmentResult {
	return entities.FulfillmentResult{Outcome: entities.Rejected, Reason: reason}
}
