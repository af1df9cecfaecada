package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"boxoffice/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const maxCodeAttempts = 5

// TicketRepository is the redemption store. It is the only writer of the used flag.
type TicketRepository struct {
	db *DB
}

func NewTicketRepo(db *DB) TicketRepository {
	if db == nil {
		panic("db is nil")
	}
	return TicketRepository{
		db: db,
	}
}

// Issue creates the ticket for one slot of an order. Issuing the same slot
// again returns the ticket created the first time.
func (r TicketRepository) Issue(ctx context.Context, req entities.IssueRequest) (entities.Ticket, error) {
	existing, err := r.bySlot(ctx, req)
	if err == nil {
		return existing, nil
	}
	if !isNoRows(err) {
		return entities.Ticket{}, err
	}

	var tier entities.Tier
	err = r.db.Conn.GetContext(ctx, &tier, `SELECT * FROM ticket_tiers WHERE tier_id = $1`, req.TierID)
	if isNoRows(err) {
		return entities.Ticket{}, entities.NotFoundError{Kind: "tier", ID: req.TierID.String()}
	}
	if err != nil {
		return entities.Ticket{}, fmt.Errorf("could not get tier %s: %w", req.TierID, err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		// one sequence per prefix: tiers with the same name share it, so their codes never overlap
		var n int64
		err := r.db.Conn.GetContext(ctx, &n, `
			INSERT INTO ticket_code_sequences (prefix, last_value)
			VALUES ($1, 1)
			ON CONFLICT (prefix) DO UPDATE SET last_value = ticket_code_sequences.last_value + 1
			RETURNING last_value`, tier.Code())
		if err != nil {
			return entities.Ticket{}, fmt.Errorf("could not get next ticket number: %w", err)
		}

		var ticket entities.Ticket
		err = r.db.Conn.GetContext(ctx, &ticket, `
			INSERT INTO
				issued_tickets (code, tier_id, payment_id, email, slot)
			VALUES
				($1, $2, $3, $4, $5)
			RETURNING *`,
			entities.TicketCode(tier.Code(), n), req.TierID, req.PaymentID, req.Email, req.Slot,
		)
		if err == nil {
			return ticket, nil
		}
		if isUniqueViolationOn(err, "issued_tickets_payment_id_tier_id_slot_key") {
			return r.bySlot(ctx, req)
		}
		if !isErrorUniqueViolation(err) {
			return entities.Ticket{}, fmt.Errorf("could not issue ticket: %w", err)
		}
	}

	return entities.Ticket{}, entities.InternalError{
		Op:  "issue ticket",
		Err: fmt.Errorf("no free code for tier %s after %d attempts", req.TierID, maxCodeAttempts),
	}
}

func (r TicketRepository) bySlot(ctx context.Context, req entities.IssueRequest) (entities.Ticket, error) {
	var ticket entities.Ticket
	err := r.db.Conn.GetContext(ctx, &ticket, `
		SELECT * FROM issued_tickets
		WHERE payment_id = $1 AND tier_id = $2 AND slot = $3`,
		req.PaymentID, req.TierID, req.Slot,
	)
	if err != nil && !isNoRows(err) {
		return entities.Ticket{}, fmt.Errorf("could not get issued ticket: %w", err)
	}

	return ticket, err
}

// Validate redeems a ticket. The used flag flips in one conditional update,
// so of two concurrent scans exactly one sees the ticket as valid.
func (r TicketRepository) Validate(ctx context.Context, code string) (entities.RedemptionResult, error) {
	res, err := r.db.Conn.ExecContext(ctx, `
		UPDATE issued_tickets
		SET used = true, used_at = now()
		WHERE code = $1 AND used = false`, code)
	if err != nil {
		return "", entities.InternalError{Op: "validate ticket", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", entities.InternalError{Op: "validate ticket", Err: err}
	}
	if affected == 1 {
		return entities.RedemptionValid, nil
	}

	var exists bool
	err = r.db.Conn.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM issued_tickets WHERE code = $1)`, code)
	if err != nil {
		return "", entities.InternalError{Op: "validate ticket", Err: err}
	}
	if !exists {
		return entities.RedemptionNotFound, nil
	}

	return entities.RedemptionAlreadyUsed, nil
}

func (r TicketRepository) ByPaymentID(ctx context.Context, paymentID string) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := r.db.Conn.SelectContext(ctx, &tickets, `
		SELECT * FROM issued_tickets
		WHERE payment_id = $1
		ORDER BY tier_id, slot`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("could not get tickets of %s: %w", paymentID, err)
	}

	return tickets, nil
}

func (r TicketRepository) Details(ctx context.Context, codes []string) ([]entities.TicketDetails, error) {
	var details []entities.TicketDetails
	err := r.db.Conn.SelectContext(ctx, &details, `
		SELECT
			t.*,
			tt.name AS tier_name,
			e.name AS event_name,
			e.venue,
			e.starts_at
		FROM issued_tickets t
		JOIN ticket_tiers tt ON tt.tier_id = t.tier_id
		JOIN events e ON e.event_id = tt.event_id
		WHERE t.code = ANY($1)
		ORDER BY t.code`, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("could not get ticket details: %w", err)
	}

	return details, nil
}

// CancelUnused revokes every ticket of the order that was not scanned yet and
// gives its capacity back to the tier, all in one transaction. Scanned tickets
// keep their capacity. Calling it again revokes nothing.
func (r TicketRepository) CancelUnused(ctx context.Context, paymentID string, reason entities.ReconciliationReason) ([]entities.Ticket, error) {
	var revoked []entities.Ticket

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		err := tx.SelectContext(ctx, &revoked, `
			UPDATE issued_tickets
			SET used = true, revoked_at = now()
			WHERE payment_id = $1 AND used = false
			RETURNING *`, paymentID)
		if err != nil {
			return fmt.Errorf("could not revoke tickets: %w", err)
		}
		if len(revoked) == 0 {
			return nil
		}

		perTier := lo.GroupBy(revoked, func(t entities.Ticket) uuid.UUID {
			return t.TierID
		})
		tierIDs := lo.Keys(perTier)
		// fixed lock order across tiers
		sort.Slice(tierIDs, func(i, j int) bool {
			return tierIDs[i].String() < tierIDs[j].String()
		})

		recs := make([]entities.Reconciliation, 0, len(tierIDs))
		for _, tierID := range tierIDs {
			qty := len(perTier[tierID])
			if err := releaseInTx(ctx, tx, tierID, qty); err != nil {
				return err
			}
			recs = append(recs, entities.Reconciliation{
				PaymentID: paymentID,
				TierID:    tierID,
				Requested: qty,
				Granted:   0,
				Reason:    reason,
			})
		}

		bus, err := outboxBus(ctx, tx)
		if err != nil {
			return err
		}
		if err := addReconciliationsInTx(ctx, tx, bus, recs); err != nil {
			return err
		}

		return bus.Publish(ctx, entities.OrderTicketsCancelled_v1{
			Header:    entities.NewEventHeader(),
			PaymentID: paymentID,
			TicketCodes: lo.Map(revoked, func(t entities.Ticket, _ int) string {
				return t.Code
			}),
			Reason: reason,
		})
	})
	if err != nil {
		return nil, entities.InternalError{Op: "cancel tickets of " + paymentID, Err: err}
	}

	return revoked, nil
}
