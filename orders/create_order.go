package orders

import (
	"context"
	"fmt"
	"net/mail"

	"boxoffice/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type OrderLine struct {
	TierID   uuid.UUID `json:"tier_id"`
	Quantity int       `json:"quantity"`
}

// CreateOrder quotes the order, opens a gateway payment for the total and
// stores the order as pending. Availability is only checked here, capacity is
// committed when the payment is confirmed.
func (s *Service) CreateOrder(ctx context.Context, email string, lines []OrderLine) (entities.Checkout, error) {
	address, err := mail.ParseAddress(email)
	if err != nil {
		return entities.Checkout{}, entities.ValidationError{Field: "email", Msg: "invalid email address"}
	}
	if len(lines) == 0 {
		return entities.Checkout{}, entities.ValidationError{Field: "items", Msg: "at least one item is required"}
	}
	for _, line := range lines {
		if line.TierID == uuid.Nil {
			return entities.Checkout{}, entities.ValidationError{Field: "tier_id", Msg: "is required"}
		}
		if line.Quantity <= 0 {
			return entities.Checkout{}, entities.ValidationError{Field: "quantity", Msg: "must be positive"}
		}
	}

	items := make([]entities.LineItem, 0, len(lines))
	for tierID, tierLines := range lo.GroupBy(lines, func(l OrderLine) uuid.UUID { return l.TierID }) {
		qty := lo.SumBy(tierLines, func(l OrderLine) int { return l.Quantity })

		availability, err := s.ledger.CheckAvailability(ctx, tierID, qty)
		if err != nil {
			return entities.Checkout{}, err
		}
		if !availability.OK {
			if availability.Reason == entities.ReasonTierNotFound {
				return entities.Checkout{}, entities.NotFoundError{Kind: "tier", ID: tierID.String()}
			}
			return entities.Checkout{}, entities.ConflictError{
				Reason: availability.Reason,
				Msg:    fmt.Sprintf("tier %s: %s", tierID, availability.Reason),
			}
		}

		tier, err := s.ledger.TierByID(ctx, tierID)
		if err != nil {
			return entities.Checkout{}, err
		}

		items = append(items, entities.LineItem{
			TierID:    tierID,
			Quantity:  qty,
			UnitPrice: tier.Price,
		})
	}

	total := entities.OrderTotal(items, s.config.TaxRate)
	quantity := lo.SumBy(items, func(i entities.LineItem) int { return i.Quantity })

	payment, err := s.gateway.CreatePayment(ctx, entities.PaymentRequest{
		Amount:      total,
		Currency:    s.config.Currency,
		Description: fmt.Sprintf("%d ticket(s)", quantity),
		RedirectURL: s.config.RedirectURL,
		WebhookURL:  s.config.WebhookURL,
		Metadata:    map[string]string{"email": address.Address},
	})
	if err != nil {
		return entities.Checkout{}, err
	}

	order := entities.Order{
		PaymentID:   payment.ID,
		Email:       address.Address,
		Total:       total,
		Currency:    s.config.Currency,
		CheckoutURL: payment.CheckoutURL,
		State:       entities.OrderPending,
		Items:       items,
	}
	if err := s.orders.Add(ctx, order); err != nil {
		log.FromContext(ctx).WithError(err).WithField("payment_id", payment.ID).Error("Payment opened but order not stored")
		return entities.Checkout{}, entities.InternalError{Op: "add order", Err: err}
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"total":      total.StringFixed(2),
		"tickets":    quantity,
	}).Info("Order created")

	return entities.Checkout{
		PaymentID:   payment.ID,
		CheckoutURL: payment.CheckoutURL,
		Total:       total,
		Currency:    s.config.Currency,
	}, nil
}
