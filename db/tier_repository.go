package db

import (
	"context"
	"database/sql"
	"fmt"

	"boxoffice/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TierRepository is the inventory ledger. It is the only writer of sold counts
// and tier statuses; every write locks the tier row first.
type TierRepository struct {
	db *DB
}

func NewTierRepository(db *DB) TierRepository {
	if db == nil {
		panic("db is nil")
	}
	return TierRepository{
		db: db,
	}
}

func (r TierRepository) Create(ctx context.Context, tier entities.Tier) (entities.Tier, error) {
	if tier.TierID == uuid.Nil {
		tier.TierID = uuid.New()
	}
	if tier.Status == "" {
		tier.Status = entities.TierAvailable
	}
	if tier.Status == entities.TierSoldOut {
		return entities.Tier{}, entities.ValidationError{Field: "status", Msg: "sold-out is set by sales only"}
	}
	if tier.Capacity <= 0 {
		return entities.Tier{}, entities.ValidationError{Field: "capacity", Msg: "must be positive"}
	}
	tier.Sold = 0

	_, err := r.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
			ticket_tiers (tier_id, event_id, name, price, capacity, sold, status)
		VALUES
			(:tier_id, :event_id, :name, :price, :capacity, :sold, :status)`,
		tier,
	)
	if err != nil {
		return entities.Tier{}, fmt.Errorf("could not create tier: %w", err)
	}

	return tier, nil
}

func (r TierRepository) TierByID(ctx context.Context, tierID uuid.UUID) (entities.Tier, error) {
	var tier entities.Tier
	err := r.db.Conn.GetContext(ctx, &tier, `SELECT * FROM ticket_tiers WHERE tier_id = $1`, tierID)
	if isNoRows(err) {
		return entities.Tier{}, entities.NotFoundError{Kind: "tier", ID: tierID.String()}
	}
	if err != nil {
		return entities.Tier{}, fmt.Errorf("could not get tier %s: %w", tierID, err)
	}

	return tier, nil
}

func (r TierRepository) TiersByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.Tier, error) {
	var tiers []entities.Tier
	err := r.db.Conn.SelectContext(ctx, &tiers, `
		SELECT * FROM ticket_tiers WHERE event_id = $1 ORDER BY price, name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("could not list tiers of event %s: %w", eventID, err)
	}

	return tiers, nil
}

// CheckAvailability never mutates; a missing tier is a result, not an error.
func (r TierRepository) CheckAvailability(ctx context.Context, tierID uuid.UUID, qty int) (entities.Availability, error) {
	tier, err := r.TierByID(ctx, tierID)
	if isNotFound(err) {
		return entities.Availability{Reason: entities.ReasonTierNotFound}, nil
	}
	if err != nil {
		return entities.Availability{}, err
	}

	return tier.CheckAvailability(qty), nil
}

// Reserve commits qty units or nothing.
func (r TierRepository) Reserve(ctx context.Context, tierID uuid.UUID, qty int) (entities.Reservation, error) {
	reservation := entities.Reservation{TierID: tierID, Requested: qty}

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		tier, err := lockTier(ctx, tx, tierID)
		if err != nil {
			return err
		}

		reservation.Granted, reservation.Reason = tier.Grant(qty, false)
		if reservation.Granted == 0 {
			return nil
		}

		return saveTier(ctx, tx, tier)
	})
	if isNotFound(err) {
		reservation.Reason = entities.ReasonTierNotFound
		return reservation, nil
	}
	if err != nil {
		return entities.Reservation{}, entities.InternalError{Op: "reserve", Err: err}
	}

	return reservation, nil
}

// ReserveForOrder grants as much of qty as the tier has left and remembers the
// outcome per payment, so that calling it again returns the first outcome.
func (r TierRepository) ReserveForOrder(ctx context.Context, paymentID string, tierID uuid.UUID, qty int) (entities.Reservation, error) {
	var reservation entities.Reservation

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		tier, err := lockTier(ctx, tx, tierID)
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &reservation, `
			SELECT tier_id, requested, granted, reason
			FROM reservations
			WHERE payment_id = $1 AND tier_id = $2`, paymentID, tierID)
		if err == nil {
			return nil
		}
		if !isNoRows(err) {
			return fmt.Errorf("could not get reservation: %w", err)
		}

		reservation = entities.Reservation{TierID: tierID, Requested: qty}
		reservation.Granted, reservation.Reason = tier.Grant(qty, true)

		if reservation.Granted > 0 {
			if err := saveTier(ctx, tx, tier); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO
				reservations (payment_id, tier_id, requested, granted, reason)
			VALUES
				($1, $2, $3, $4, $5)`,
			paymentID, tierID, reservation.Requested, reservation.Granted, reservation.Reason,
		)
		if err != nil {
			return fmt.Errorf("could not save reservation: %w", err)
		}

		return nil
	})
	if isNotFound(err) {
		return entities.Reservation{TierID: tierID, Requested: qty, Reason: entities.ReasonTierNotFound}, nil
	}
	if err != nil {
		return entities.Reservation{}, entities.InternalError{Op: "reserve for order " + paymentID, Err: err}
	}

	return reservation, nil
}

func (r TierRepository) Release(ctx context.Context, tierID uuid.UUID, qty int) error {
	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		return releaseInTx(ctx, tx, tierID, qty)
	})
	if err != nil {
		return fmt.Errorf("could not release %d of tier %s: %w", qty, tierID, err)
	}

	return nil
}

// Update applies an admin edit under the same row lock reservations take.
func (r TierRepository) Update(ctx context.Context, tierID uuid.UUID, update entities.TierUpdate) (entities.Tier, error) {
	var updated entities.Tier

	err := updateInTx(ctx, r.db.Conn, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		tier, err := lockTier(ctx, tx, tierID)
		if err != nil {
			return err
		}

		if err := tier.Apply(update); err != nil {
			return err
		}

		updated = tier
		return saveTier(ctx, tx, tier)
	})
	if err != nil {
		return entities.Tier{}, err
	}

	return updated, nil
}

func lockTier(ctx context.Context, tx *sqlx.Tx, tierID uuid.UUID) (entities.Tier, error) {
	var tier entities.Tier
	err := tx.GetContext(ctx, &tier, `SELECT * FROM ticket_tiers WHERE tier_id = $1 FOR UPDATE`, tierID)
	if isNoRows(err) {
		return entities.Tier{}, entities.NotFoundError{Kind: "tier", ID: tierID.String()}
	}
	if err != nil {
		return entities.Tier{}, fmt.Errorf("could not lock tier %s: %w", tierID, err)
	}

	return tier, nil
}

func saveTier(ctx context.Context, tx *sqlx.Tx, tier entities.Tier) error {
	_, err := tx.NamedExecContext(ctx, `
		UPDATE ticket_tiers
		SET price = :price, capacity = :capacity, sold = :sold, status = :status
		WHERE tier_id = :tier_id`,
		tier,
	)
	if err != nil {
		return fmt.Errorf("could not save tier %s: %w", tier.TierID, err)
	}

	return nil
}

func releaseInTx(ctx context.Context, tx *sqlx.Tx, tierID uuid.UUID, qty int) error {
	tier, err := lockTier(ctx, tx, tierID)
	if err != nil {
		return err
	}

	tier.Release(qty)

	return saveTier(ctx, tx, tier)
}
