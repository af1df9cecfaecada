package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boxoffice/entities"
	"boxoffice/message/event"
	"boxoffice/message/outbox"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) OrderRepository {
	if db == nil {
		panic("db is nil")
	}
	return OrderRepository{
		db: db,
	}
}

func (r OrderRepository) Add(ctx context.Context, order entities.Order) error {
	return updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO
				pending_orders (payment_id, email, total, currency, checkout_url, state)
			VALUES
				(:payment_id, :email, :total, :currency, :checkout_url, :state)`,
			order,
		)
		if isErrorUniqueViolation(err) {
			return entities.ConflictError{Msg: fmt.Sprintf("order %s already exists", order.PaymentID)}
		}
		if err != nil {
			return fmt.Errorf("could not add order: %w", err)
		}

		for _, item := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO
					order_items (payment_id, tier_id, quantity, unit_price)
				VALUES
					($1, $2, $3, $4)`,
				order.PaymentID, item.TierID, item.Quantity, item.UnitPrice,
			)
			if err != nil {
				return fmt.Errorf("could not add order item: %w", err)
			}
		}

		return nil
	})
}

func (r OrderRepository) ByPaymentID(ctx context.Context, paymentID string) (entities.Order, error) {
	var order entities.Order
	err := r.db.Conn.GetContext(ctx, &order, `SELECT * FROM pending_orders WHERE payment_id = $1`, paymentID)
	if isNoRows(err) {
		return entities.Order{}, entities.NotFoundError{Kind: "order", ID: paymentID}
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("could not get order %s: %w", paymentID, err)
	}

	err = r.db.Conn.SelectContext(ctx, &order.Items, `
		SELECT tier_id, quantity, unit_price
		FROM order_items
		WHERE payment_id = $1
		ORDER BY tier_id`, paymentID)
	if err != nil {
		return entities.Order{}, fmt.Errorf("could not get items of order %s: %w", paymentID, err)
	}

	return order, nil
}

// Complete moves a pending order to its terminal state. The reconciliation
// records and the events about them are written in the same transaction.
// It returns false when the order was not pending anymore.
func (r OrderRepository) Complete(ctx context.Context, fulfillment entities.Fulfillment) (bool, error) {
	paymentID := fulfillment.Order.PaymentID
	state := fulfillment.State()
	reason := ""
	if state == entities.OrderFailed {
		reason = string(fulfillment.Reconciliations[0].Reason)
	}

	completed := false
	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE pending_orders
			SET state = $1, failure_reason = $2, updated_at = now()
			WHERE payment_id = $3 AND state = $4`,
			state, reason, paymentID, entities.OrderPending,
		)
		if err != nil {
			return fmt.Errorf("could not complete order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		completed = true

		bus, err := outboxBus(ctx, tx)
		if err != nil {
			return err
		}

		if err := addReconciliationsInTx(ctx, tx, bus, fulfillment.Reconciliations); err != nil {
			return err
		}

		if len(fulfillment.Tickets) == 0 {
			return nil
		}

		return bus.Publish(ctx, entities.TicketsIssued_v1{
			Header:    entities.NewEventHeaderWithIdempotencyKey("tickets-issued-" + paymentID),
			PaymentID: paymentID,
			Email:     fulfillment.Order.Email,
			TicketCodes: lo.Map(fulfillment.Tickets, func(t entities.Ticket, _ int) string {
				return t.Code
			}),
		})
	})
	if err != nil {
		return false, entities.InternalError{Op: "complete order " + paymentID, Err: err}
	}

	return completed, nil
}

// MarkFailed fails a pending order; it is a no-op for orders in a terminal state.
func (r OrderRepository) MarkFailed(ctx context.Context, paymentID string, reason string) (bool, error) {
	res, err := r.db.Conn.ExecContext(ctx, `
		UPDATE pending_orders
		SET state = $1, failure_reason = $2, updated_at = now()
		WHERE payment_id = $3 AND state = $4`,
		entities.OrderFailed, reason, paymentID, entities.OrderPending,
	)
	if err != nil {
		return false, fmt.Errorf("could not fail order %s: %w", paymentID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ExpirePending fails pending orders created before the given time. Orders that
// already reserved capacity are being fulfilled and are left alone.
func (r OrderRepository) ExpirePending(ctx context.Context, createdBefore time.Time) ([]string, error) {
	var expired []string
	err := r.db.Conn.SelectContext(ctx, &expired, `
		UPDATE pending_orders o
		SET state = $1, failure_reason = $2, updated_at = now()
		WHERE o.state = $3
			AND o.created_at < $4
			AND NOT EXISTS (SELECT 1 FROM reservations r WHERE r.payment_id = o.payment_id)
		RETURNING o.payment_id`,
		entities.OrderFailed, entities.OrderExpired, entities.OrderPending, createdBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("could not expire pending orders: %w", err)
	}

	return expired, nil
}

func outboxBus(ctx context.Context, tx *sqlx.Tx) (eventPublisher, error) {
	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("error creating event outbox publisher: %w", err)
	}

	return event.NewBus(outboxPublisher), nil
}

type eventPublisher interface {
	Publish(ctx context.Context, event any) error
}
