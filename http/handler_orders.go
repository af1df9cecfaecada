package http

import (
	"fmt"
	"net/http"

	"boxoffice/entities"
	"boxoffice/orders"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
)

type orderRequest struct {
	Email string             `json:"email"`
	Items []orders.OrderLine `json:"items"`
}

type orderResponse struct {
	entities.Order
	Tickets         []entities.Ticket         `json:"tickets"`
	Reconciliations []entities.Reconciliation `json:"reconciliations,omitempty"`
}

type paymentNotification struct {
	ID string `json:"id" form:"id"`
}

func (h Handler) PostOrder(c echo.Context) error {
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	checkout, err := h.orders.CreateOrder(c.Request().Context(), req.Email, req.Items)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, checkout)
}

func (h Handler) GetOrder(c echo.Context) error {
	paymentID := c.Param("payment_id")
	ctx := c.Request().Context()

	order, err := h.orderRepo.ByPaymentID(ctx, paymentID)
	if err != nil {
		return toHTTPError(err)
	}

	tickets, err := h.tickets.ByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	recs, err := h.reconciliations.ByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orderResponse{
		Order:           order,
		Tickets:         tickets,
		Reconciliations: recs,
	})
}

// PostPaymentWebhook answers only after the order was fulfilled (or rejected),
// so a crash before the answer makes the gateway deliver the notification again.
func (h Handler) PostPaymentWebhook(c echo.Context) error {
	var notification paymentNotification
	if err := c.Bind(&notification); err != nil {
		return err
	}
	if notification.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	result, err := h.orders.FulfillOrder(c.Request().Context(), notification.ID)
	if err != nil {
		return toHTTPError(fmt.Errorf("could not fulfill order %s: %w", notification.ID, err))
	}

	log.FromContext(c.Request().Context()).
		WithField("payment_id", notification.ID).
		WithField("outcome", result.Outcome).
		Info("Payment notification handled")

	return c.JSON(http.StatusOK, result)
}
