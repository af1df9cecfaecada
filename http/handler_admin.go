package http

import (
	"fmt"
	"net/http"

	"boxoffice/entities"

	"github.com/labstack/echo/v4"
)

type cancelOrderRequest struct {
	Reason entities.ReconciliationReason `json:"reason"`
}

func (h Handler) GetReconciliations(c echo.Context) error {
	recs, err := h.reconciliations.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, recs)
}

// PutCancelOrder revokes the unused tickets of an order asynchronously.
func (h Handler) PutCancelOrder(c echo.Context) error {
	paymentID := c.Param("payment_id")

	var req cancelOrderRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return err
		}
	}
	if req.Reason == "" {
		req.Reason = entities.ReconciliationCancelled
	}
	if !req.Reason.Compensation() {
		return toHTTPError(entities.ValidationError{Field: "reason", Msg: fmt.Sprintf("unknown cancellation reason %q", req.Reason)})
	}

	ctx := c.Request().Context()

	order, err := h.orderRepo.ByPaymentID(ctx, paymentID)
	if err != nil {
		return toHTTPError(err)
	}
	if order.State == entities.OrderPending {
		return echo.NewHTTPError(http.StatusConflict, "order has no tickets yet")
	}

	cmd := entities.CancelOrderTickets_v1{
		Header:    entities.NewEventHeaderWithIdempotencyKey("cancel-" + paymentID),
		PaymentID: paymentID,
		Reason:    req.Reason,
	}
	if err := h.commandBus.Send(ctx, cmd); err != nil {
		return fmt.Errorf("failed to send CancelOrderTickets_v1 command: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}
